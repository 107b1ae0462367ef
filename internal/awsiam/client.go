package awsiam

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// AccessKeyAPI is the subset of the IAM client used for key rotation.
type AccessKeyAPI interface {
	ListAccessKeys(ctx context.Context, params *iam.ListAccessKeysInput, optFns ...func(*iam.Options)) (*iam.ListAccessKeysOutput, error)
	CreateAccessKey(ctx context.Context, params *iam.CreateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.CreateAccessKeyOutput, error)
	UpdateAccessKey(ctx context.Context, params *iam.UpdateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.UpdateAccessKeyOutput, error)
	DeleteAccessKey(ctx context.Context, params *iam.DeleteAccessKeyInput, optFns ...func(*iam.Options)) (*iam.DeleteAccessKeyOutput, error)
}

// CallerIdentityAPI is the subset of the STS client used to resolve the
// caller's own identity.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Clients bundles the AWS service clients for one rotation run.
type Clients struct {
	IAM *iam.Client
	STS *sts.Client
}

// NewClients builds IAM and STS clients from the default credential chain,
// scoped to the given shared-config profile when one is set.
func NewClients(ctx context.Context, profile string) (*Clients, error) {
	var configOpts []func(*awsconfig.LoadOptions) error
	if profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Clients{
		IAM: iam.NewFromConfig(cfg),
		STS: sts.NewFromConfig(cfg),
	}, nil
}

// UserNameFromARN extracts the IAM user name from a caller-identity ARN
// such as arn:aws:iam::123456789012:user/path/alice. ARNs that do not
// identify an IAM user (assumed roles, the account root) are rejected so
// the operator can pass --user instead.
func UserNameFromARN(arn string) (string, error) {
	const marker = ":user/"
	i := strings.Index(arn, marker)
	if i < 0 {
		return "", fmt.Errorf("ARN %q does not identify an IAM user", arn)
	}

	path := arn[i+len(marker):]
	parts := strings.Split(path, "/")
	name := parts[len(parts)-1]
	if name == "" {
		return "", fmt.Errorf("ARN %q has an empty user name", arn)
	}
	return name, nil
}
