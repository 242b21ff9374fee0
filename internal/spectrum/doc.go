// Package spectrum synthesizes first-derivative ESR spectra.
//
// Every radical is built in two stages. First a stick spectrum: a single
// line seeded at index 1 is split by each equivalent nucleus of each
// hyperfine group into 2I+1 lines spaced by the coupling, so n nuclei of
// spin 1/2 give the binomial pattern 1, n, ... , 1. The pattern is then
// shifted to the middle of the window.
//
// Second, a derivative line shape is computed for the whole sweep as a mix
// of Lorentzian and Gaussian derivatives, weighted by the Lorentzian
// percentage and normalized by the total stick intensity. The line shape is
// convolved with the sticks and scaled by the radical amount.
//
// Radicals add linearly. Errors are reported as *Error values that match
// ErrInvalidRequest, ErrDegenerateIntensity or ErrStickOverflow with
// errors.Is.
package spectrum
