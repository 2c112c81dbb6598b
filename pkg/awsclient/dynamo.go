package awsclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	apperrors "github.com/FabricioMatosSIlva/awswatch-go/internal/errors"
)

// WorkPoolRecord is one validated row of the work-pool table.
type WorkPoolRecord struct {
	EntityName string
	UID        string
	ExpiresAt  int64
}

// DynamoAPI is the narrow slice of the DynamoDB client the monitor needs.
type DynamoAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoClient scans the work-pool table for the expiry monitor.
type DynamoClient struct {
	api DynamoAPI
}

// NewDynamoClient resolves credentials and returns a ready client.
func NewDynamoClient(ctx context.Context, src CredentialSource, region string) (*DynamoClient, error) {
	cfg, err := Resolve(ctx, src, region)
	if err != nil {
		return nil, err
	}
	return &DynamoClient{api: dynamodb.NewFromConfig(cfg)}, nil
}

// NewDynamoClientFromAPI wires an existing API implementation; used by tests.
func NewDynamoClientFromAPI(api DynamoAPI) *DynamoClient {
	return &DynamoClient{api: api}
}

// workPoolRow mirrors the projected table attributes.
type workPoolRow struct {
	EntityName string `dynamodbav:"entity_name"`
	Expires    int64  `dynamodbav:"expires"`
	UID        string `dynamodbav:"uid"`
}

// ScanWorkPool reads the whole table, following pagination, and validates
// each row. Rows missing required attributes are skipped, not fatal.
func (c *DynamoClient) ScanWorkPool(ctx context.Context, table string) ([]WorkPoolRecord, error) {
	if table == "" {
		return nil, apperrors.WrapValidationError("scan_work_pool", table, errors.New("table name is empty"))
	}

	var records []WorkPoolRecord
	var startKey map[string]types.AttributeValue

	for {
		out, err := c.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(table),
			ProjectionExpression: aws.String("entity_name, expires, uid"),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			var notFound *types.ResourceNotFoundException
			if errors.As(err, &notFound) {
				return nil, apperrors.WrapNotFoundError("scan_work_pool", table, err)
			}
			return nil, wrapAPIError("scan_work_pool", table, err)
		}

		var rows []workPoolRow
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &rows); err != nil {
			return nil, apperrors.WrapValidationError("scan_work_pool", table,
				fmt.Errorf("%w: unmarshal scanned items: %v", apperrors.ErrMalformedRecord, err))
		}

		for _, row := range rows {
			if row.EntityName == "" || row.UID == "" {
				log.Warn().
					Str("table", table).
					Str("entity", row.EntityName).
					Str("uid", row.UID).
					Msg("Skipping work-pool row with missing identity attributes")
				continue
			}
			records = append(records, WorkPoolRecord{
				EntityName: row.EntityName,
				UID:        row.UID,
				ExpiresAt:  row.Expires,
			})
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return records, nil
}
