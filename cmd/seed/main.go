package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/platform/logging"
	"bookcatalog/internal/platform/postgres"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var defaultBooks = []book.Input{
	{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Year: 1965, Rating: 4.6},
	{Title: "Neuromancer", Author: "William Gibson", Genre: "Science Fiction", Year: 1984, Rating: 4.1},
	{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Genre: "Science Fiction", Year: 1969, Rating: 4.3},
	{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", Year: 1813, Rating: 4.5},
	{Title: "The Hobbit", Author: "J. R. R. Tolkien", Genre: "Fantasy", Year: 1937, Rating: 4.7},
	{Title: "Nineteen Eighty-Four", Author: "George Orwell", Genre: "Dystopian", Year: 1949, Rating: 4.4},
	{Title: "The Name of the Rose", Author: "Umberto Eco", Genre: "Mystery", Year: 1980, Rating: 4.2},
	{Title: "One Hundred Years of Solitude", Author: "Gabriel Garcia Marquez", Genre: "Magical Realism", Year: 1967, Rating: 4.5},
}

type seedFile struct {
	Books []book.Draft `yaml:"books"`
}

func main() {
	file := flag.String("file", "", "YAML file with a top-level 'books' list; built-in samples when empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger, flush, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer func() { _ = flush() }()

	books := defaultBooks
	if *file != "" {
		if books, err = loadSeedFile(*file); err != nil {
			logger.Fatal("cannot read seed file", zap.String("file", *file), zap.Error(err))
		}
	}

	ctx := context.Background()
	pool, err := postgres.Open(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		logger.Fatal("cannot open database", zap.Error(err))
	}
	defer pool.Close()

	repo := book.NewPostgresRepo(pool, cfg.DB.QueryTimeout)
	n, err := seed(ctx, repo, books)
	if err != nil {
		logger.Fatal("seeding failed", zap.Int("inserted", n), zap.Error(err))
	}
	logger.Info("seeding complete", zap.Int("inserted", n))
}

func loadSeedFile(path string) ([]book.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeSeed(f)
}

func decodeSeed(r io.Reader) ([]book.Input, error) {
	var sf seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(sf.Books) == 0 {
		return nil, errors.New("no books listed")
	}

	books := make([]book.Input, 0, len(sf.Books))
	var errs []error
	for i, d := range sf.Books {
		in, err := d.Input(fmt.Sprintf("books[%d]", i))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		books = append(books, in)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return books, nil
}

// seed inserts books one by one and stops at the first failure.
func seed(ctx context.Context, repo book.Repository, books []book.Input) (int, error) {
	for i, in := range books {
		if _, err := repo.Create(ctx, in); err != nil {
			return i, fmt.Errorf("insert %q: %w", in.Title, err)
		}
	}
	return len(books), nil
}
