package awsclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	apperrors "github.com/FabricioMatosSIlva/awswatch-go/internal/errors"
)

// QueueTarget identifies one monitored queue. Immutable once resolved for a
// polling cycle.
type QueueTarget struct {
	Name string
	URL  string
}

// QueueAttributes is the raw counter set fetched for one queue.
type QueueAttributes struct {
	Target       QueueTarget
	Available    int64
	NotVisible   int64
	Delayed      int64
	CreatedAt    time.Time
	LastModified time.Time
}

// SQSAPI is the narrow slice of the SQS client the monitor needs.
type SQSAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	ListQueues(ctx context.Context, params *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

// SQSClient fetches queue counters for the queue monitor.
type SQSClient struct {
	api SQSAPI
}

// NewSQSClient resolves credentials and returns a ready client.
func NewSQSClient(ctx context.Context, src CredentialSource, region string) (*SQSClient, error) {
	cfg, err := Resolve(ctx, src, region)
	if err != nil {
		return nil, err
	}
	return &SQSClient{api: sqs.NewFromConfig(cfg)}, nil
}

// NewSQSClientFromAPI wires an existing API implementation; used by tests.
func NewSQSClientFromAPI(api SQSAPI) *SQSClient {
	return &SQSClient{api: api}
}

// GetQueueTarget resolves a queue name to its URL. A queue that does not
// exist yields a not-found error the caller can skip.
func (c *SQSClient) GetQueueTarget(ctx context.Context, name string) (QueueTarget, error) {
	out, err := c.api.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
	if err != nil {
		var notExist *types.QueueDoesNotExist
		if errors.As(err, &notExist) {
			return QueueTarget{}, apperrors.WrapNotFoundError("get_queue_url", name, err)
		}
		return QueueTarget{}, wrapAPIError("get_queue_url", name, err)
	}
	return QueueTarget{Name: name, URL: aws.ToString(out.QueueUrl)}, nil
}

// ListQueueTargets returns every queue visible in the region.
func (c *SQSClient) ListQueueTargets(ctx context.Context) ([]QueueTarget, error) {
	var targets []QueueTarget
	var nextToken *string

	for {
		out, err := c.api.ListQueues(ctx, &sqs.ListQueuesInput{NextToken: nextToken})
		if err != nil {
			return nil, wrapAPIError("list_queues", "", err)
		}
		for _, url := range out.QueueUrls {
			targets = append(targets, QueueTarget{Name: queueNameFromURL(url), URL: url})
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return targets, nil
}

// FetchQueueAttributes fetches and validates the counters for one queue.
func (c *SQSClient) FetchQueueAttributes(ctx context.Context, target QueueTarget) (QueueAttributes, error) {
	out, err := c.api.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl: aws.String(target.URL),
		AttributeNames: []types.QueueAttributeName{
			types.QueueAttributeNameApproximateNumberOfMessages,
			types.QueueAttributeNameApproximateNumberOfMessagesNotVisible,
			types.QueueAttributeNameApproximateNumberOfMessagesDelayed,
			types.QueueAttributeNameCreatedTimestamp,
			types.QueueAttributeNameLastModifiedTimestamp,
		},
	})
	if err != nil {
		var notExist *types.QueueDoesNotExist
		if errors.As(err, &notExist) {
			return QueueAttributes{}, apperrors.WrapNotFoundError("get_queue_attributes", target.Name, err)
		}
		return QueueAttributes{}, wrapAPIError("get_queue_attributes", target.Name, err)
	}

	attrs := QueueAttributes{Target: target}
	if attrs.Available, err = parseCount(out.Attributes, types.QueueAttributeNameApproximateNumberOfMessages); err != nil {
		return QueueAttributes{}, apperrors.WrapValidationError("get_queue_attributes", target.Name, err)
	}
	if attrs.NotVisible, err = parseCount(out.Attributes, types.QueueAttributeNameApproximateNumberOfMessagesNotVisible); err != nil {
		return QueueAttributes{}, apperrors.WrapValidationError("get_queue_attributes", target.Name, err)
	}
	if attrs.Delayed, err = parseCount(out.Attributes, types.QueueAttributeNameApproximateNumberOfMessagesDelayed); err != nil {
		return QueueAttributes{}, apperrors.WrapValidationError("get_queue_attributes", target.Name, err)
	}

	// Timestamps are informational; a queue missing them is still usable.
	attrs.CreatedAt = parseEpoch(out.Attributes, types.QueueAttributeNameCreatedTimestamp)
	attrs.LastModified = parseEpoch(out.Attributes, types.QueueAttributeNameLastModifiedTimestamp)

	return attrs, nil
}

func parseCount(attrs map[string]string, key types.QueueAttributeName) (int64, error) {
	raw, ok := attrs[string(key)]
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: attribute %s: %q is not an integer", apperrors.ErrMalformedRecord, key, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: attribute %s: negative count %d", apperrors.ErrMalformedRecord, key, n)
	}
	return n, nil
}

func parseEpoch(attrs map[string]string, key types.QueueAttributeName) time.Time {
	raw, ok := attrs[string(key)]
	if !ok || raw == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Debug().Str("attribute", string(key)).Str("value", raw).Msg("Skipping unparseable queue timestamp")
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

func queueNameFromURL(url string) string {
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
