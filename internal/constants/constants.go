package constants

import "time"

// DefaultBaseURL is the standard base URL for the TMDB v3 REST API.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// ImageBaseURL is prepended to poster, backdrop and logo paths for display.
const ImageBaseURL = "https://image.tmdb.org/t/p/original"

// DefaultUserAgent is sent with every provider request.
const DefaultUserAgent = "media-organizer v0.1.0"

// DefaultDatabasePath is the sqlite file used when no DSN is configured.
const DefaultDatabasePath = "database.db"

// DefaultHTTPTimeout bounds a single provider round trip.
const DefaultHTTPTimeout = 15 * time.Second
