// Package common contains shared constants and sentinel errors used across
// BloomBuddy components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// PaywallMarker is the placeholder text the care-facts API returns in place
// of fields gated behind its paid tier. Matched case-insensitively.
const PaywallMarker = "upgrade plans to premium"

// NotAvailable is shown wherever a care value is missing.
const NotAvailable = "N/A"
