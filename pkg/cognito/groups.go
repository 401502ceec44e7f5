// Package cognito wraps the user pool administration calls the backend makes.
package cognito

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

// GroupAPI is the Cognito call used to grant group membership.
type GroupAPI interface {
	AdminAddUserToGroup(ctx context.Context, params *cognitoidentityprovider.AdminAddUserToGroupInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminAddUserToGroupOutput, error)
}

var _ GroupAPI = (*cognitoidentityprovider.Client)(nil)

// Groups adds users to user pool groups.
type Groups struct {
	api GroupAPI
}

func NewGroups(api GroupAPI) *Groups {
	return &Groups{api: api}
}

// NewFromRegion builds Groups on the default credential chain.
func NewFromRegion(ctx context.Context, region string) (*Groups, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewGroups(cognitoidentityprovider.NewFromConfig(cfg)), nil
}

func (g *Groups) AddUserToGroup(ctx context.Context, userPoolID, username, group string) error {
	_, err := g.api.AdminAddUserToGroup(ctx, &cognitoidentityprovider.AdminAddUserToGroupInput{
		UserPoolId: aws.String(userPoolID),
		Username:   aws.String(username),
		GroupName:  aws.String(group),
	})
	if err != nil {
		return fmt.Errorf("add %s to group %s: %w", username, group, err)
	}
	return nil
}
