package cloudwatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"

	"awstail/internal/api"
	"awstail/internal/services"
)

// API is the subset of the CloudWatch Logs SDK client this package calls.
type API interface {
	FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
}

// Options selects the credentials profile and region. Empty fields defer to
// the SDK's environment and shared config resolution.
type Options struct {
	Profile string
	Region  string
}

// Client implements the log and group backends on top of CloudWatch Logs.
type Client struct {
	api    API
	region string
}

// New loads AWS configuration and builds a client. Failure to resolve
// configuration is reported before any log request is sent.
func New(ctx context.Context, opts Options) (*Client, error) {
	var loaders []func(*awsconfig.LoadOptions) error
	if region := strings.TrimSpace(opts.Region); region != "" {
		loaders = append(loaders, awsconfig.WithRegion(region))
	}
	if profile := strings.TrimSpace(opts.Profile); profile != "" {
		loaders = append(loaders, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cloudwatch", "load aws config", profileLabel(opts.Profile), err)
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "cloudwatch", "load aws config", "no region configured", nil)
	}
	return NewWithAPI(cloudwatchlogs.NewFromConfig(cfg), cfg.Region), nil
}

// NewWithAPI wraps an existing SDK client or a test double.
func NewWithAPI(client API, region string) *Client {
	return &Client{api: client, region: region}
}

// Region reports the region the client was built for.
func (c *Client) Region() string {
	return c.region
}

// FilterEvents runs one FilterLogEvents call.
func (c *Client) FilterEvents(ctx context.Context, req api.FilterRequest) (api.FilterPage, error) {
	input := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName:  aws.String(req.LogGroup),
		StartTime:     req.StartTime,
		NextToken:     req.NextToken,
		FilterPattern: req.FilterPattern,
	}
	if req.Limit > 0 {
		input.Limit = aws.Int32(req.Limit)
	}
	out, err := c.api.FilterLogEvents(ctx, input)
	if err != nil {
		return api.FilterPage{}, classify(err, req.LogGroup)
	}
	page := api.FilterPage{
		Events:    make([]api.LogEvent, 0, len(out.Events)),
		NextToken: out.NextToken,
	}
	for _, evt := range out.Events {
		page.Events = append(page.Events, api.LogEvent{
			Timestamp: evt.Timestamp,
			Message:   aws.ToString(evt.Message),
			Stream:    aws.ToString(evt.LogStreamName),
		})
	}
	return page, nil
}

// DescribeGroups returns one page of log group names.
func (c *Client) DescribeGroups(ctx context.Context, token *string) (api.GroupsPage, error) {
	out, err := c.api.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{NextToken: token})
	if err != nil {
		return api.GroupsPage{}, classify(err, "")
	}
	page := api.GroupsPage{
		Names:     make([]string, 0, len(out.LogGroups)),
		NextToken: out.NextToken,
	}
	for _, group := range out.LogGroups {
		if name := aws.ToString(group.LogGroupName); name != "" {
			page.Names = append(page.Names, name)
		}
	}
	return page, nil
}

// classify tags SDK errors that retrying cannot fix as configuration errors
// and throttling as transient. Everything else is returned unchanged for the
// caller to classify.
func classify(err error, group string) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return services.Wrap(services.ErrConfiguration, "cloudwatch", "resolve log group",
			fmt.Sprintf("log group %q does not exist", group), err)
	}
	var invalid *types.InvalidParameterException
	if errors.As(err, &invalid) {
		return services.Wrap(services.ErrConfiguration, "cloudwatch", "validate request", "", err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "UnrecognizedClientException", "ExpiredTokenException":
			return services.Wrap(services.ErrConfiguration, "cloudwatch", "authorize", "check AWS credentials", err)
		case "ThrottlingException", "ServiceUnavailableException":
			return services.Wrap(services.ErrTransient, "cloudwatch", "call", apiErr.ErrorCode(), err)
		}
	}
	return err
}

func profileLabel(profile string) string {
	if profile = strings.TrimSpace(profile); profile != "" {
		return "profile " + profile
	}
	return ""
}
