// Package locator discovers which port the companion is bound to.
//
// The companion picks a port from one of two fixed blocks at startup: a TLS
// block and a plain HTTP block. Each discovery attempt probes every port of
// both blocks at once and takes the first port that answers. An attempt that
// sees no answer before its timeout fails with webhelper.ErrDiscoveryTimeout;
// Locate keeps retrying until a port answers or the context is cancelled.
package locator
