package domain

import "errors"

// ErrFetchFailed is the only failure the catalog surfaces. Transport errors,
// non-2xx statuses and undecodable bodies all wrap it.
var ErrFetchFailed = errors.New("failed to fetch products")

// ErrSessionNotFound is returned when a search session id is unknown or expired.
var ErrSessionNotFound = errors.New("search session not found")

// FetchErrorMessage is what users see when a search cannot be loaded.
const FetchErrorMessage = "Failed to load products. Check your connection."
