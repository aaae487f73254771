// Package storage signs and manages objects in S3-compatible storage using
// [github.com/aws/aws-sdk-go-v2].
//
// Uploads never pass through the server: [Storage.PresignUpload] hands the
// client a short-lived PUT URL for a key built with [BuildKey].
package storage
