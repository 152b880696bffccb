package models

import (
	"fmt"
	"strings"
)

const (
	TypeMovie  = "movie"
	TypeSeries = "series"
)

type Content struct {
	ID          int     `json:"id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ReleaseYear int     `json:"releaseYear"`
	Rating      float64 `json:"rating"`
	Views       int     `json:"views"`
	Likes       int     `json:"likes"`
	Genres      []Genre `json:"genres"`
	CreatedAt   string  `json:"createdAt"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreIDs returns the ids of the content's genres.
func (c Content) GenreIDs() []int {
	ids := make([]int, len(c.Genres))
	for i, g := range c.Genres {
		ids[i] = g.ID
	}
	return ids
}

// ContentUpdate carries a partial update; nil fields are left untouched.
type ContentUpdate struct {
	Type        *string  `json:"type"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	ReleaseYear *int     `json:"releaseYear"`
	Rating      *float64 `json:"rating"`
	GenreIDs    *[]int   `json:"genres"`
}

// ScoredContent is a catalog item annotated by the recommendation pipeline.
type ScoredContent struct {
	Content
	GenreMatchCount     int `json:"genreMatchCount"`
	RecommendationScore int `json:"recommendationScore"`
}

// RecommendationRequest is the body of POST /api/content/recommendations.
// LikedContent is accepted for forward compatibility but does not influence
// the score.
type RecommendationRequest struct {
	LikedGenres  []int `json:"likedGenres"`
	LikedContent []int `json:"likedContent"`
	ExcludeIDs   []int `json:"excludeIds"`
}

type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	Limit       int  `json:"limit"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

type Profile struct {
	ID        int    `json:"id"`
	UserID    int    `json:"userId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	IsKid     bool   `json:"isKid"`
	CreatedAt string `json:"createdAt"`
}

type ViewingProgress struct {
	ID              int    `json:"id"`
	ProfileID       int    `json:"profileId"`
	ContentID       int    `json:"contentId"`
	PositionSeconds int    `json:"positionSeconds"`
	DurationSeconds int    `json:"durationSeconds"`
	IsCompleted     bool   `json:"isCompleted"`
	UpdatedAt       string `json:"updatedAt"`
}

// Validate checks the fields a partial update actually carries.
func (u ContentUpdate) Validate() error {
	var fields []string
	if u.Type != nil && *u.Type != TypeMovie && *u.Type != TypeSeries {
		fields = append(fields, "type")
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		fields = append(fields, "title")
	}
	if u.ReleaseYear != nil && *u.ReleaseYear < 1888 {
		fields = append(fields, "releaseYear")
	}
	if u.Rating != nil && (*u.Rating < 0 || *u.Rating > 10) {
		fields = append(fields, "rating")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidationError names the fields that violate the content schema.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for field(s): %s", strings.Join(e.Fields, ", "))
}

// Validate checks the schema invariants for a content item about to be
// created. It returns a *ValidationError listing every violated field.
func (c Content) Validate() error {
	var fields []string
	if c.Type != TypeMovie && c.Type != TypeSeries {
		fields = append(fields, "type")
	}
	if strings.TrimSpace(c.Title) == "" {
		fields = append(fields, "title")
	}
	if c.ReleaseYear < 1888 {
		fields = append(fields, "releaseYear")
	}
	if c.Rating < 0 || c.Rating > 10 {
		fields = append(fields, "rating")
	}
	if c.Views < 0 {
		fields = append(fields, "views")
	}
	if c.Likes < 0 {
		fields = append(fields, "likes")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
