// Package services talks to the destination content API.
//
// [APIService] is the raw JSON transport. [ContentService] creates authors, tags
// and posts; [AssetUploader] resolves legacy upload files on disk and sends them
// to the image endpoints.
//
// # Errors
//
// Every unsuccessful call returns a [*Failure] whose [FailureKind] says what went wrong:
//   - [ClientRejected] : 4xx, the payload was refused
//   - [ServerFailed] : 5xx
//   - [TransportFailed] : no response was received
//   - [UnmappedResponse] : 1xx or 3xx
//   - [MalformedResponse] : 2xx whose body lacks the id or url
//   - [AssetUnresolvable] : the legacy file could not be located or read
//
// errors.Is matches a Failure against the sentinel for its kind ([ErrClientRejected]
// and friends) and against the shared sentinels those wrap. Nothing here retries;
// [Failure.Retryable] lets callers decide.
package services
