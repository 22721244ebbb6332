package sindri

// Version of the SDK, reported to the API in the Sindri-Client header.
// DO NOT EDIT - updated by the release tooling.
const Version = "v0.1.0"
