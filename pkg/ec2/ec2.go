// Package ec2 wraps the AWS SDK's EC2 client with the project-scoped
// queries the inventory needs.
package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Client queries EC2 for instances belonging to one project.
type Client struct {
	api awsec2.DescribeInstancesAPIClient
}

// NewClient builds a Client for the region using the SDK's default
// credential chain.
func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Client{api: awsec2.NewFromConfig(cfg)}, nil
}

// NewClientFromAPI wraps an existing DescribeInstances implementation.
// Used by tests to inject a fake.
func NewClientFromAPI(api awsec2.DescribeInstancesAPIClient) *Client {
	return &Client{api: api}
}

// ProjectInstances returns every instance tagged Project=projectTag that is
// in one of the given states, across all result pages.
func (c *Client) ProjectInstances(ctx context.Context, projectTag string, states ...string) ([]ec2types.Instance, error) {
	input := &awsec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("tag:Project"), Values: []string{projectTag}},
			{Name: aws.String("instance-state-name"), Values: states},
		},
	}

	var instances []ec2types.Instance
	paginator := awsec2.NewDescribeInstancesPaginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return instances, fmt.Errorf("describing instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			instances = append(instances, reservation.Instances...)
		}
	}
	return instances, nil
}

// Tags flattens an instance's tag list into a map.
func Tags(inst ec2types.Instance) map[string]string {
	tags := make(map[string]string, len(inst.Tags))
	for _, t := range inst.Tags {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return tags
}
