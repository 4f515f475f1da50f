package types

// Version is the canonical smelt version. All components report this
// single version; there is no per-package versioning.
const Version = "0.2.0"
