package tmdb

// --- Structs to decode TMDB API JSON responses ---

type searchParams struct {
	Query        string `url:"query"`
	Year         string `url:"year,omitempty"`
	IncludeAdult bool   `url:"include_adult"`
	Language     string `url:"language,omitempty"`
}

type detailsParams struct {
	Language string `url:"language,omitempty"`
}

type searchResponse struct {
	Page         int            `json:"page"`
	Results      []searchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

type searchResult struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	Overview      string  `json:"overview"`
	Popularity    float64 `json:"popularity"`
}

// movieDetails mirrors GET /movie/{id}. Fields TMDB may omit or null are pointers.
type movieDetails struct {
	ID               int      `json:"id"`
	Title            *string  `json:"title"`
	OriginalTitle    *string  `json:"original_title"`
	ReleaseDate      *string  `json:"release_date"`
	Runtime          *int     `json:"runtime"`
	Overview         *string  `json:"overview"`
	Tagline          *string  `json:"tagline"`
	Homepage         *string  `json:"homepage"`
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path"`
	Budget           *int64   `json:"budget"`
	Revenue          *int64   `json:"revenue"`
	Popularity       *float64 `json:"popularity"`
	VoteAverage      *float64 `json:"vote_average"`
	VoteCount        *int     `json:"vote_count"`
	Adult            *bool    `json:"adult"`
	Video            *bool    `json:"video"`
	Status           *string  `json:"status"`
	OriginalLanguage *string  `json:"original_language"`
	IMDbID           *string  `json:"imdb_id"`

	Genres              []tmdbGenre     `json:"genres"`
	BelongsToCollection *tmdbCollection `json:"belongs_to_collection"`
	ProductionCompanies []tmdbCompany   `json:"production_companies"`
	ProductionCountries []tmdbCountry   `json:"production_countries"`
	SpokenLanguages     []tmdbLanguage  `json:"spoken_languages"`
}

type tmdbGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type tmdbCollection struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
}

type tmdbCompany struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	OriginCountry string  `json:"origin_country"`
	LogoPath      *string `json:"logo_path"`
}

type tmdbCountry struct {
	ISO31661 string `json:"iso_3166_1"`
	Name     string `json:"name"`
}

type tmdbLanguage struct {
	ISO6391     string `json:"iso_639_1"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
}

// errorResponse is the body TMDB sends with 4xx/5xx statuses.
type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}
