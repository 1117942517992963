package flowcanvas

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/aretw0/flowcanvas.Version=...".
var Version = "0.1.0-dev"
