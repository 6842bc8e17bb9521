package storage

import (
	"context"
	"fmt"

	"github.com/gmoraes/peneira/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return ctx.Err()
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateProducts(products []model.Product) error {
	if len(products) == 0 {
		return fmt.Errorf("products cannot be empty")
	}
	for i, p := range products {
		if p.RawName == "" {
			return fmt.Errorf("product %d has an empty name", i)
		}
	}
	return nil
}

func validateKeyEntry(entry model.HashKeyEntry) error {
	if entry.KeyType == "" {
		return fmt.Errorf("key type cannot be empty")
	}
	if entry.DuplicateGroupID <= 0 {
		return fmt.Errorf("duplicate group id must be positive")
	}
	return nil
}
