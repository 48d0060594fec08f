package messagerepo

import (
	"testing"

	"github.com/weddingpass/pass-api/internal/adapters/contracttest"
	messagerepoport "github.com/weddingpass/pass-api/internal/ports/out/messagerepo"
)

func TestContract_MessageRepo(t *testing.T) {
	contracttest.RunMessageRepo(t, func(t *testing.T) (messagerepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
