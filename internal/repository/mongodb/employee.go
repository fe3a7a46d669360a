package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type employeeDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	DepartmentID *string   `bson:"department_id,omitempty"`
	IsAdmin      bool      `bson:"is_admin"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type employeeRepository struct {
	col *mongo.Collection
}

func NewEmployeeRepository(m *database.MongoDB) employee.EmployeeRepository {
	return &employeeRepository{col: m.DB.Collection(colEmployees)}
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	var doc employeeDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee.Employee(doc), nil
}

// Upsert implements employee.EmployeeRepository.
func (r *employeeRepository) Upsert(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":          emp.Name,
			"department_id": emp.DepartmentID,
			"is_admin":      emp.IsAdmin,
			"updated_at":    now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc employeeDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": emp.ID}, update, opts).Decode(&doc); err != nil {
		return employee.Employee{}, fmt.Errorf("failed to upsert employee: %w", err)
	}
	return employee.Employee(doc), nil
}
