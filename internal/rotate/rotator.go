// Package rotate implements the access key rotation sequence: create a
// replacement key, persist it locally, wait out propagation, then retire
// the superseded keys.
package rotate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/systmms/keyturn/internal/awsiam"
	kterrors "github.com/systmms/keyturn/internal/errors"
	"github.com/systmms/keyturn/internal/logging"
)

// IAM allows at most two concurrent access keys per user; attempting a
// third creation would be rejected by the service.
const maxKeysPerUser = 2

// propagationWait gives a freshly created key time to become valid across
// AWS before the old keys are disabled.
const propagationWait = 10 * time.Second

// Store persists a rotated key pair under a named profile.
type Store interface {
	Path() string
	WriteProfile(profile, accessKeyID, secretAccessKey string) error
}

// Options control a single rotation run.
type Options struct {
	Profile         string
	User            string
	GracePeriodDays int
	Force           bool
}

// Rotator executes the fixed rotation sequence against IAM and the local
// credentials store. It is single-shot and sequential: the key list is
// read once up front and acted on as a snapshot.
type Rotator struct {
	iam    awsiam.AccessKeyAPI
	sts    awsiam.CallerIdentityAPI
	store  Store
	logger *logging.Logger

	// Sleep and Now are swappable so tests can run the full sequence
	// without real elapsed time.
	Sleep func(time.Duration)
	Now   func() time.Time
}

// New creates a Rotator with the real clock wired in.
func New(iamAPI awsiam.AccessKeyAPI, stsAPI awsiam.CallerIdentityAPI, store Store, logger *logging.Logger) *Rotator {
	return &Rotator{
		iam:    iamAPI,
		sts:    stsAPI,
		store:  store,
		logger: logger,
		Sleep:  time.Sleep,
		Now:    time.Now,
	}
}

// Rotate runs the rotation sequence. Errors from the early steps
// (identity resolution, listing, the two-key cap, creation, the file
// write) are fatal and returned; deactivation and deletion failures in
// the supersession pass are logged and skipped.
//
// A file write failure leaves the freshly created remote key in place
// with nothing recorded locally. That gap is deliberate: the tool never
// deletes a key it just created.
func (r *Rotator) Rotate(ctx context.Context, opts Options) error {
	user := opts.User
	if user == "" {
		resolved, err := r.resolveUser(ctx)
		if err != nil {
			return err
		}
		user = resolved
	}
	r.logger.Info("Rotating access keys for user %s", user)

	existing, err := r.listKeys(ctx, user)
	if err != nil {
		return err
	}

	if len(existing) >= maxKeysPerUser && !opts.Force {
		return kterrors.CapExceededError{User: user, Count: len(existing)}
	}

	r.logger.Info("Creating new access key...")
	created, err := r.iam.CreateAccessKey(ctx, &iam.CreateAccessKeyInput{
		UserName: aws.String(user),
	})
	if err != nil {
		return kterrors.KeyCreationError{User: user, Err: err}
	}
	newKeyID := aws.ToString(created.AccessKey.AccessKeyId)
	r.logger.Info("New access key created: %s", newKeyID)
	r.logger.Debug("Secret access key: %s", logging.Secret(aws.ToString(created.AccessKey.SecretAccessKey)))

	r.logger.Info("Updating credentials file at %s...", r.store.Path())
	err = r.store.WriteProfile(opts.Profile, newKeyID, aws.ToString(created.AccessKey.SecretAccessKey))
	if err != nil {
		return fmt.Errorf("failed to update credentials file: %w", err)
	}
	r.logger.Info("Credentials file updated with new access key")

	r.logger.Info("Waiting %s for the new key to propagate...", propagationWait)
	r.Sleep(propagationWait)

	if len(existing) >= maxKeysPerUser && opts.Force {
		oldest := oldestKey(existing)
		r.logger.Info("Deactivating oldest key %s...", aws.ToString(oldest.AccessKeyId))
		r.deactivate(ctx, user, aws.ToString(oldest.AccessKeyId))
	}

	for _, key := range existing {
		keyID := aws.ToString(key.AccessKeyId)
		if keyID == newKeyID {
			continue
		}

		r.logger.Info("Deactivating previous key %s...", keyID)
		r.deactivate(ctx, user, keyID)

		if opts.GracePeriodDays > 0 {
			deleteOn := r.Now().AddDate(0, 0, opts.GracePeriodDays)
			r.logger.Info("The key will be permanently deleted after %d days (on %s)",
				opts.GracePeriodDays, deleteOn.Format("2006-01-02"))
			r.logger.Info("To delete it manually, run: aws iam delete-access-key --access-key-id %s --user-name %s",
				keyID, user)
		} else {
			r.logger.Info("Deleting previous key %s...", keyID)
			r.delete(ctx, user, keyID)
		}
	}

	r.logger.Info("Access key rotation completed successfully")
	r.logger.Info("New access key ID: %s", newKeyID)
	r.logger.Warn("Keep the secret access key secure, it will not be retrievable again")
	return nil
}

func (r *Rotator) resolveUser(ctx context.Context) (string, error) {
	out, err := r.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", kterrors.IdentityResolutionError{Err: err}
	}

	user, err := awsiam.UserNameFromARN(aws.ToString(out.Arn))
	if err != nil {
		return "", kterrors.IdentityResolutionError{Err: err}
	}
	return user, nil
}

func (r *Rotator) listKeys(ctx context.Context, user string) ([]types.AccessKeyMetadata, error) {
	var keys []types.AccessKeyMetadata
	input := &iam.ListAccessKeysInput{UserName: aws.String(user)}
	for {
		out, err := r.iam.ListAccessKeys(ctx, input)
		if err != nil {
			return nil, kterrors.ListKeysError{User: user, Err: err}
		}
		keys = append(keys, out.AccessKeyMetadata...)
		if !out.IsTruncated {
			return keys, nil
		}
		input.Marker = out.Marker
	}
}

func (r *Rotator) deactivate(ctx context.Context, user, keyID string) {
	_, err := r.iam.UpdateAccessKey(ctx, &iam.UpdateAccessKeyInput{
		UserName:    aws.String(user),
		AccessKeyId: aws.String(keyID),
		Status:      types.StatusTypeInactive,
	})
	if err != nil {
		r.logger.Error("%v", kterrors.DeactivationError{KeyID: keyID, Err: err})
		return
	}
	r.logger.Info("Access key %s has been deactivated", keyID)
}

func (r *Rotator) delete(ctx context.Context, user, keyID string) {
	_, err := r.iam.DeleteAccessKey(ctx, &iam.DeleteAccessKeyInput{
		UserName:    aws.String(user),
		AccessKeyId: aws.String(keyID),
	})
	if err != nil {
		r.logger.Error("%v", kterrors.DeletionError{KeyID: keyID, Err: err})
		return
	}
	r.logger.Info("Access key %s has been deleted", keyID)
}

// oldestKey picks the key with the earliest creation time. Keys sharing a
// timestamp keep their service-returned order, so the first seen wins.
func oldestKey(keys []types.AccessKeyMetadata) types.AccessKeyMetadata {
	sorted := make([]types.AccessKeyMetadata, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool {
		return aws.ToTime(sorted[i].CreateDate).Before(aws.ToTime(sorted[j].CreateDate))
	})
	return sorted[0]
}
