//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"stewardship/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)
	suite.Run(t, &StoreSuite{newStore: func() groupStore {
		if err := pg.Reset(context.Background()); err != nil {
			t.Fatalf("reset: %v", err)
		}
		return NewPostgres(pg.DB)
	}})
}
