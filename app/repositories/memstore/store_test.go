package memstore

import (
	"testing"

	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/app/repositories/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) repositories.Store { return New() })
}
