package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "postgres://user@localhost:notaport/snipe")
	assert.ErrorContains(t, err, "db: parse url")
}
