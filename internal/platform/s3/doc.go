// Package s3 stages CloudFormation templates in an S3 bucket.
//
// Templates larger than the inline request limit are uploaded under
// templates/<stack>/<timestamp>.template and submitted by URL. The bucket is
// created on first use.
package s3
