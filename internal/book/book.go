package book

import (
	"errors"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// Book is the output shape of a catalog entry. ID is assigned by the store.
type Book struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Genre  string  `json:"genre"`
	Year   int64   `json:"year"`
	Rating float64 `json:"rating"`
}

// Input is the shape accepted on create and update.
type Input struct {
	Title  string  `json:"title" yaml:"title"`
	Author string  `json:"author" yaml:"author"`
	Genre  string  `json:"genre" yaml:"genre"`
	Year   int64   `json:"year" yaml:"year"`
	Rating float64 `json:"rating" yaml:"rating"`
}

// FromInput builds the output shape for a stored record.
func FromInput(id int64, in Input) Book {
	return Book{
		ID:     id,
		Title:  in.Title,
		Author: in.Author,
		Genre:  in.Genre,
		Year:   in.Year,
		Rating: in.Rating,
	}
}

// YearRange bounds a filter query. Nil bounds are open.
type YearRange struct {
	Min *int64
	Max *int64
}
