package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNoRounds         = errors.New("game definition has no rounds")
	ErrEmptyRound       = errors.New("round has no categories")
	ErrRoundTooLarge    = errors.New("round has too many clues")
	ErrUnknownRoundType = errors.New("unknown round_type")
	ErrNotFound         = errors.New("game definition not found")
)

// Source resolves a content id (e.g. a game number) to a playable Definition.
type Source interface {
	Load(ctx context.Context, id string) (*Definition, error)
}

// DirSource reads <Root>/<id>.json.
type DirSource struct {
	Root string
}

// NewDirSource returns a DirSource rooted at root.
func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root}
}

// Load reads and parses the definition for id.
func (s *DirSource) Load(ctx context.Context, id string) (*Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return nil, fmt.Errorf("invalid content id %q: %w", id, ErrNotFound)
	}

	path := filepath.Join(s.Root, id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// StaticSource serves in-memory definitions, keyed by id.
type StaticSource map[string]*Definition

// Load returns the definition for id.
func (s StaticSource) Load(_ context.Context, id string) (*Definition, error) {
	def, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("content %q: %w", id, ErrNotFound)
	}
	return def, nil
}
