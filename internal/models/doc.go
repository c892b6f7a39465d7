// Package models defines the entities moved by wpx and the JSON bodies exchanged with the destination.
//
// The package contains three categories of types:
//
// 1. Source rows read from the WordPress database
//   - [Author] : a user who published at least one post
//   - [Tag] : a term of the configured taxonomy (categories by default)
//   - [Post] : a published post with its thumbnail path and term names
//
// 2. Payload drafts and the payloads they build
//   - [AuthorDraft], [TagDraft], [PostDraft] : immutable builders; every With method returns a copy
//   - [AuthorPayload], [TagPayload], [PostPayload] : bodies for /authors, /tags and /posts
//   - [ImageUpload] : body for the image endpoints
//
// 3. Destination replies
//   - [Reference] : identifier returned for a created entity or uploaded asset
//
// Source rows are values and are never mutated once read.
package models
