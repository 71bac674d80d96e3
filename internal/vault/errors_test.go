package vault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindClassification(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{err: ErrNotOwner, want: KindAuthorization},
		{err: ErrNotOperator, want: KindAuthorization},
		{err: ErrTransactionNotFound, want: KindNotFound},
		{err: ErrSubscriptionNotFound, want: KindNotFound},
		{err: ErrAlreadyExecuted, want: KindStateConflict},
		{err: ErrNotYetDue, want: KindStateConflict},
		{err: ErrSubscriptionExpired, want: KindStateConflict},
		{err: ErrInvalidRequirement, want: KindValidation},
		{err: ErrBadMetadata, want: KindValidation},
		{err: ErrExternalCallFailed, want: KindExternalCall},
		{err: errors.New("something else"), want: KindUnknown},
		{err: nil, want: KindUnknown},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v): got=%s want=%s", tc.err, got, tc.want)
		}
	}

	// Wrapped sentinels classify the same as bare ones.
	wrapped := fmt.Errorf("context: %w", ErrBadMetadata)
	if got := Kind(wrapped); got != KindValidation {
		t.Errorf("wrapped sentinel: got=%s want=%s", got, KindValidation)
	}
}
