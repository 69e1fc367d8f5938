// Package store persists uploaded compositions.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("composition not found")

// Format is the encoding of a stored source.
type Format string

const (
	FormatJSON Format = "json"
	FormatZip  Format = "zip"
)

// Record is an uploaded composition source with its metadata.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Format    Format    `json:"format"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	FrameRate float64   `json:"frameRate"`
	Frames    float64   `json:"frames"`
	CreatedAt time.Time `json:"createdAt"`
	Data      []byte    `json:"-"`
}

type Store interface {
	Put(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List returns records without their data, newest first.
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) error
}
