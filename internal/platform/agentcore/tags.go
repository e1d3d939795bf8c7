package agentcore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
)

// TagRuntime applies tags to the runtime identified by arn.
func (c *Client) TagRuntime(ctx context.Context, arn string, tags map[string]string) error {
	_, err := c.control.TagResource(ctx, &bedrockagentcorecontrol.TagResourceInput{
		ResourceArn: aws.String(arn),
		Tags:        tags,
	})
	if err != nil {
		return fmt.Errorf("failed to tag runtime %s: %w", arn, err)
	}
	return nil
}

// RuntimeTags returns the tags of the runtime identified by arn.
func (c *Client) RuntimeTags(ctx context.Context, arn string) (map[string]string, error) {
	out, err := c.control.ListTagsForResource(ctx, &bedrockagentcorecontrol.ListTagsForResourceInput{
		ResourceArn: aws.String(arn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags of runtime %s: %w", arn, err)
	}
	if out.Tags == nil {
		return map[string]string{}, nil
	}
	return out.Tags, nil
}
