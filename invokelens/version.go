package invokelens

// Version is the SDK version stamped onto every emitted event.
const Version = "0.1.0"
