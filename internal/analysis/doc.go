// Package analysis provides frequency analysis of recorded runs.
//
//   - [FFT]: radix-2 fast Fourier transform
//   - [PowerSpectrum]: magnitude spectrum of a zero-padded series
//   - [DominantPeriod]: strongest periodic component, in samples
//
// A body bouncing between two walls without collisions shows a dominant
// period equal to its round trip time in frames:
//
//	xs := analysis.Series(records, id, analysis.PositionX)
//	period, ok := analysis.DominantPeriod(xs)
package analysis
