package repositories

import "context"

// Geolocator maps a client IP address to an ISO 3166-1 alpha-2 country code.
type Geolocator interface {
	// LocateCountry returns the country code for the IP, or an empty string
	// when the IP cannot be located. Errors mean the lookup itself failed.
	LocateCountry(ctx context.Context, ip string) (string, error)
}
