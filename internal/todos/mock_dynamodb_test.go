package todos

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory table keyed by "id".
// It keeps insertion order so scans are deterministic, and pageSize simulates
// the size-bounded scan pages of the real service.
type mockDynamo struct {
	mu       sync.Mutex
	order    []string
	items    map[string]map[string]types.AttributeValue
	pageSize int

	scanCalls int
	lastScan  *dyn.ScanInput
	failWith  error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		items: map[string]map[string]types.AttributeValue{},
	}
}

func keyOf(m map[string]types.AttributeValue) (string, error) {
	v, ok := m["id"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("no id attribute")
	}
	return v.Value, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	pk, err := keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	old, exists := m.items[pk]
	if params.ConditionExpression != nil {
		switch *params.ConditionExpression {
		case "attribute_not_exists(#id)":
			if exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case "attribute_exists(#id)":
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	if !exists {
		m.order = append(m.order, pk)
	}
	m.items[pk] = params.Item

	out := &dyn.PutItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld && exists {
		out.Attributes = old
	}
	return out, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	pk, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return nil, errors.New("UpdateItem not supported by records mock")
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	pk, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	old, ok := m.items[pk]
	if !ok {
		return &dyn.DeleteItemOutput{}, nil
	}
	delete(m.items, pk)
	for i, k := range m.order {
		if k == pk {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	out := &dyn.DeleteItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.scanCalls++
	m.lastScan = params

	start := 0
	if params.ExclusiveStartKey != nil {
		last, err := keyOf(params.ExclusiveStartKey)
		if err != nil {
			return nil, err
		}
		for i, k := range m.order {
			if k == last {
				start = i + 1
				break
			}
		}
	}

	n := len(m.order) - start
	if params.Limit != nil && int(*params.Limit) < n {
		n = int(*params.Limit)
	}
	if m.pageSize > 0 && m.pageSize < n {
		n = m.pageSize
	}

	out := &dyn.ScanOutput{}
	for _, k := range m.order[start : start+n] {
		out.Items = append(out.Items, project(m.items[k], params.ProjectionExpression, params.ExpressionAttributeNames))
	}
	if start+n < len(m.order) && n > 0 {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: m.order[start+n-1]},
		}
	}
	return out, nil
}

func (m *mockDynamo) DescribeTable(ctx context.Context, params *dyn.DescribeTableInput, optFns ...func(*dyn.Options)) (*dyn.DescribeTableOutput, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return &dyn.DescribeTableOutput{Table: &types.TableDescription{TableName: params.TableName}}, nil
}

// project applies a projection of top-level and one-level nested paths.
func project(item map[string]types.AttributeValue, expr *string, names map[string]string) map[string]types.AttributeValue {
	if expr == nil {
		return item
	}
	resolve := func(s string) string {
		if n, ok := names[s]; ok {
			return n
		}
		return s
	}
	out := map[string]types.AttributeValue{}
	for _, path := range strings.Split(*expr, ",") {
		parts := strings.Split(strings.TrimSpace(path), ".")
		top := resolve(parts[0])
		v, ok := item[top]
		if !ok {
			continue
		}
		if len(parts) == 1 {
			out[top] = v
			continue
		}
		nested, ok := v.(*types.AttributeValueMemberM)
		if !ok {
			continue
		}
		child := resolve(parts[1])
		cv, ok := nested.Value[child]
		if !ok {
			continue
		}
		dst, _ := out[top].(*types.AttributeValueMemberM)
		if dst == nil {
			dst = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}}
			out[top] = dst
		}
		dst.Value[child] = cv
	}
	return out
}
