// Package cloudwatch adapts the AWS SDK CloudWatch Logs client to the
// backend contracts used by the tail engine. Credentials and region are
// resolved once, through the SDK's shared configuration chain, when the
// client is built; the engine only ever sees the resulting handle.
package cloudwatch
