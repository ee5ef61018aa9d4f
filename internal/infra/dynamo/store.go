package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

const maxWriteAttempts = 5

// API is the subset of *dynamodb.Client used by Store.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store keeps each entity in its own table. Appointment writes go through
// a transaction that also bumps the barber's scheduleVersion, so two
// writers that checked the same schedule cannot both commit.
type Store struct {
	client API
	tables Tables
	now    func() time.Time
}

func New(client API, tables Tables) *Store {
	return &Store{client: client, tables: tables, now: time.Now}
}

func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

func number(n int64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func isConditionFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

func (s *Store) getItem(ctx context.Context, table string, key map[string]types.AttributeValue, out any) (bool, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("get %s: %w", table, err)
	}
	if len(resp.Item) == 0 {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(resp.Item, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", table, err)
	}
	return true, nil
}

func (s *Store) scan(ctx context.Context, table string, out any) error {
	var items []map[string]types.AttributeValue

	p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		items = append(items, page.Items...)
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("decode %s: %w", table, err)
	}
	return nil
}

func (s *Store) query(ctx context.Context, in *dynamodb.QueryInput) ([]models.Appointment, error) {
	var items []map[string]types.AttributeValue

	p := dynamodb.NewQueryPaginator(s.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", aws.ToString(in.TableName), err)
		}
		items = append(items, page.Items...)
	}

	out := []models.Appointment{}
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	return out, nil
}

// putNew writes item only when no item with the same key attribute exists.
func (s *Store) putNew(ctx context.Context, table, keyAttr string, v any) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", table, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(" + keyAttr + ")"),
	})
	if isConditionFailed(err) {
		return storage.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("put %s: %w", table, err)
	}
	return nil
}

// replace overwrites an existing item.
func (s *Store) replace(ctx context.Context, table, keyAttr string, v any) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", table, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(" + keyAttr + ")"),
	})
	if isConditionFailed(err) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("put %s: %w", table, err)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, table, keyAttr string, key map[string]types.AttributeValue) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(table),
		Key:                 key,
		ConditionExpression: aws.String("attribute_exists(" + keyAttr + ")"),
	})
	if isConditionFailed(err) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// ==================================================
// Barbers
// ==================================================

func (s *Store) ListBarbers(ctx context.Context) ([]models.Barber, error) {
	out := []models.Barber{}
	if err := s.scan(ctx, s.tables.Barbers, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].ServiceIDs == nil {
			out[i].ServiceIDs = models.StringList{}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *Store) GetBarber(ctx context.Context, barberID string) (*models.Barber, error) {
	var b models.Barber
	ok, err := s.getItem(ctx, s.tables.Barbers, strKey("barberId", barberID), &b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("barber %s: %w", barberID, storage.ErrNotFound)
	}
	if b.ServiceIDs == nil {
		b.ServiceIDs = models.StringList{}
	}
	return &b, nil
}

func (s *Store) CreateBarber(ctx context.Context, b *models.Barber) error {
	if b.CreatedAt == 0 {
		b.CreatedAt = s.now().UnixMilli()
	}
	if err := s.putNew(ctx, s.tables.Barbers, "barberId", b); err != nil {
		return fmt.Errorf("barber %s: %w", b.BarberID, err)
	}
	return nil
}

// UpdateBarber touches only the profile attributes so the barber's
// scheduleVersion survives.
func (s *Store) UpdateBarber(ctx context.Context, b *models.Barber) error {
	values, err := attributevalue.MarshalMap(map[string]any{
		":name":       b.Name,
		":serviceIds": []string(b.ServiceIDs),
		":rating":     b.Rating,
		":photoUrl":   b.PhotoURL,
	})
	if err != nil {
		return fmt.Errorf("encode barber: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tables.Barbers),
		Key:                       strKey("barberId", b.BarberID),
		UpdateExpression:          aws.String("SET #name = :name, serviceIds = :serviceIds, rating = :rating, photoUrl = :photoUrl"),
		ConditionExpression:       aws.String("attribute_exists(barberId)"),
		ExpressionAttributeNames:  map[string]string{"#name": "name"},
		ExpressionAttributeValues: values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("barber %s: %w", b.BarberID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update barber %s: %w", b.BarberID, err)
	}
	return nil
}

func (s *Store) DeleteBarber(ctx context.Context, barberID string) error {
	if err := s.remove(ctx, s.tables.Barbers, "barberId", strKey("barberId", barberID)); err != nil {
		return fmt.Errorf("barber %s: %w", barberID, err)
	}
	return nil
}

// ==================================================
// Services
// ==================================================

func (s *Store) ListServices(ctx context.Context) ([]models.Service, error) {
	out := []models.Service{}
	if err := s.scan(ctx, s.tables.Services, &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *Store) GetService(ctx context.Context, serviceID string) (*models.Service, error) {
	var svc models.Service
	ok, err := s.getItem(ctx, s.tables.Services, strKey("serviceId", serviceID), &svc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("service %s: %w", serviceID, storage.ErrNotFound)
	}
	return &svc, nil
}

func (s *Store) CreateService(ctx context.Context, svc *models.Service) error {
	if svc.CreatedAt == 0 {
		svc.CreatedAt = s.now().UnixMilli()
	}
	if err := s.putNew(ctx, s.tables.Services, "serviceId", svc); err != nil {
		return fmt.Errorf("service %s: %w", svc.ServiceID, err)
	}
	return nil
}

func (s *Store) UpdateService(ctx context.Context, svc *models.Service) error {
	if err := s.replace(ctx, s.tables.Services, "serviceId", svc); err != nil {
		return fmt.Errorf("service %s: %w", svc.ServiceID, err)
	}
	return nil
}

func (s *Store) DeleteService(ctx context.Context, serviceID string) error {
	if err := s.remove(ctx, s.tables.Services, "serviceId", strKey("serviceId", serviceID)); err != nil {
		return fmt.Errorf("service %s: %w", serviceID, err)
	}
	return nil
}

// ==================================================
// Appointments
// ==================================================

func appointmentKey(barberID, appointmentID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"barberId":      &types.AttributeValueMemberS{Value: barberID},
		"appointmentId": &types.AttributeValueMemberS{Value: appointmentID},
	}
}

// dateRangeQuery reads the DateIndex, which already returns items in
// startTime order.
func (s *Store) dateRangeQuery(barberID string, filter storage.AppointmentFilter) *dynamodb.QueryInput {
	cond := "barberId = :barberId"
	values := map[string]types.AttributeValue{
		":barberId": &types.AttributeValueMemberS{Value: barberID},
	}

	switch {
	case filter.StartFrom != nil && filter.StartTo != nil:
		cond += " AND startTime BETWEEN :from AND :to"
		values[":from"] = number(*filter.StartFrom)
		values[":to"] = number(*filter.StartTo)
	case filter.StartFrom != nil:
		cond += " AND startTime >= :from"
		values[":from"] = number(*filter.StartFrom)
	case filter.StartTo != nil:
		cond += " AND startTime <= :to"
		values[":to"] = number(*filter.StartTo)
	}

	in := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tables.Appointments),
		IndexName:                 aws.String(DateIndex),
		KeyConditionExpression:    aws.String(cond),
		ExpressionAttributeValues: values,
	}

	// endTime is not part of the index key
	if filter.EndAfter != nil {
		in.FilterExpression = aws.String("endTime > :endAfter")
		values[":endAfter"] = number(*filter.EndAfter)
	}
	return in
}

func (s *Store) ListAppointments(
	ctx context.Context,
	barberID string,
	filter storage.AppointmentFilter,
) ([]models.Appointment, error) {
	if filter.StartFrom != nil && filter.StartTo != nil && *filter.StartFrom > *filter.StartTo {
		return []models.Appointment{}, nil
	}
	return s.query(ctx, s.dateRangeQuery(barberID, filter))
}

func (s *Store) GetAppointment(ctx context.Context, barberID, appointmentID string) (*models.Appointment, error) {
	var ap models.Appointment
	ok, err := s.getItem(ctx, s.tables.Appointments, appointmentKey(barberID, appointmentID), &ap)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("appointment %s: %w", appointmentID, storage.ErrNotFound)
	}
	return &ap, nil
}

func (s *Store) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	if ap.CreatedAt == 0 {
		ap.CreatedAt = s.now().UnixMilli()
	}
	return s.writeAppointment(ctx, ap, true)
}

func (s *Store) UpdateAppointment(ctx context.Context, ap *models.Appointment) error {
	ap.UpdatedAt = s.now().UnixMilli()
	return s.writeAppointment(ctx, ap, false)
}

func (s *Store) DeleteAppointment(ctx context.Context, barberID, appointmentID string) error {
	err := s.remove(ctx, s.tables.Appointments, "appointmentId", appointmentKey(barberID, appointmentID))
	if err != nil {
		return fmt.Errorf("appointment %s: %w", appointmentID, err)
	}
	return nil
}

func (s *Store) writeAppointment(ctx context.Context, ap *models.Appointment, create bool) error {
	for attempt := 1; ; attempt++ {
		version, err := s.scheduleVersion(ctx, ap.BarberID)
		if err != nil {
			return err
		}

		if domain.Blocks(ap) {
			if err := s.checkConflict(ctx, ap); err != nil {
				return err
			}
		}

		in, err := s.appointmentTx(ap, version, create)
		if err != nil {
			return err
		}

		_, err = s.client.TransactWriteItems(ctx, in)
		if err == nil {
			return nil
		}

		var canceled *types.TransactionCanceledException
		if !errors.As(err, &canceled) {
			return fmt.Errorf("write appointment %s: %w", ap.AppointmentID, err)
		}

		// Reasons follow the item order: barber first, then appointment.
		if len(canceled.CancellationReasons) > 1 &&
			aws.ToString(canceled.CancellationReasons[1].Code) == "ConditionalCheckFailed" {
			if create {
				return fmt.Errorf("appointment %s: %w", ap.AppointmentID, storage.ErrAlreadyExists)
			}
			return fmt.Errorf("appointment %s: %w", ap.AppointmentID, storage.ErrNotFound)
		}

		if attempt >= maxWriteAttempts {
			return fmt.Errorf("barber %s schedule kept changing: %w", ap.BarberID, storage.ErrConflict)
		}
	}
}

func (s *Store) scheduleVersion(ctx context.Context, barberID string) (int64, error) {
	var row struct {
		BarberID        string `dynamodbav:"barberId"`
		ScheduleVersion int64  `dynamodbav:"scheduleVersion"`
	}

	ok, err := s.getItem(ctx, s.tables.Barbers, strKey("barberId", barberID), &row)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("barber %s: %w", barberID, storage.ErrNotFound)
	}
	return row.ScheduleVersion, nil
}

// checkConflict reads the base table with a consistent read; the DateIndex
// may lag behind recent writes.
func (s *Store) checkConflict(ctx context.Context, ap *models.Appointment) error {
	existing, err := s.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Appointments),
		ConsistentRead:         aws.Bool(true),
		KeyConditionExpression: aws.String("barberId = :barberId"),
		FilterExpression:       aws.String("#status <> :cancelled AND startTime < :end AND endTime > :start"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":barberId":  &types.AttributeValueMemberS{Value: ap.BarberID},
			":cancelled": &types.AttributeValueMemberS{Value: string(domain.StatusCancelled)},
			":start":     number(ap.StartTime),
			":end":       number(ap.EndTime),
		},
	})
	if err != nil {
		return err
	}

	if c := domain.FindConflict(existing, domain.IntervalOf(ap), ap.AppointmentID); c != nil {
		return fmt.Errorf("overlaps %s: %w", c.AppointmentID, storage.ErrConflict)
	}
	return nil
}

func (s *Store) appointmentTx(ap *models.Appointment, version int64, create bool) (*dynamodb.TransactWriteItemsInput, error) {
	item, err := attributevalue.MarshalMap(ap)
	if err != nil {
		return nil, fmt.Errorf("encode appointment: %w", err)
	}

	versionCond := "attribute_exists(barberId) AND attribute_not_exists(scheduleVersion)"
	values := map[string]types.AttributeValue{
		":next": number(version + 1),
	}
	if version > 0 {
		versionCond = "scheduleVersion = :version"
		values[":version"] = number(version)
	}

	putCond := "attribute_exists(appointmentId)"
	if create {
		putCond = "attribute_not_exists(appointmentId)"
	}

	return &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:                 aws.String(s.tables.Barbers),
					Key:                       strKey("barberId", ap.BarberID),
					UpdateExpression:          aws.String("SET scheduleVersion = :next"),
					ConditionExpression:       aws.String(versionCond),
					ExpressionAttributeValues: values,
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(s.tables.Appointments),
					Item:                item,
					ConditionExpression: aws.String(putCond),
				},
			},
		},
	}, nil
}

// ==================================================
// Users
// ==================================================

func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	ok, err := s.getItem(ctx, s.tables.Users, strKey("username", username), &u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("user %s: %w", username, storage.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt == 0 {
		u.CreatedAt = s.now().UnixMilli()
	}
	if err := s.putNew(ctx, s.tables.Users, "username", u); err != nil {
		return fmt.Errorf("user %s: %w", u.Username, err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	if err := s.replace(ctx, s.tables.Users, "username", u); err != nil {
		return fmt.Errorf("user %s: %w", u.Username, err)
	}
	return nil
}

// ==================================================
// Audit
// ==================================================

func (s *Store) WriteAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.CreatedAt == 0 {
		entry.CreatedAt = s.now().UnixMilli()
	}
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.AuditLogs),
		Item:      item,
	})
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, q audit.Query) ([]models.AuditLog, int64, error) {
	all := []models.AuditLog{}
	if err := s.scan(ctx, s.tables.AuditLogs, &all); err != nil {
		return nil, 0, err
	}

	matched := []models.AuditLog{}
	for i := range all {
		if q.Match(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt > matched[j].CreatedAt })

	page, total := audit.Page(matched, q)
	return page, total, nil
}

func (s *Store) Close() error {
	return nil
}

var (
	_ storage.Store = (*Store)(nil)
	_ audit.Sink    = (*Store)(nil)
	_ audit.Reader  = (*Store)(nil)
)
