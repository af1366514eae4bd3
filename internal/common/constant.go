package common

// APIKeyHeaderName is the HTTP header carrying the project's anonymous key
// on every request to the auth provider.
const APIKeyHeaderName = "apikey"

// MinPasswordLength is the shortest password accepted before any network
// call is made.
const MinPasswordLength = 6
