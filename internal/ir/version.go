package ir

// EngineVersion is the nftreg registry engine version.
const EngineVersion = "0.3.0"
