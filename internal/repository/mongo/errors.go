package mongo

import (
	"errors"
	"fmt"

	"alcyxob/fitness-hub/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

// translate maps driver errors onto repository errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return fmt.Errorf("%w: %v", repository.ErrTransient, err)
	}
	return err
}
