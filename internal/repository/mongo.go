package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-service/internal/entity"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
)

type userDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Password string             `bson:"password"`
}

type taskDocument struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Task   string             `bson:"task"`
	TaskID string             `bson:"taskId"`
	Stage  string             `bson:"stage"`
	UserID primitive.ObjectID `bson:"userId,omitempty"`
}

func (d *taskDocument) toEntity() *entity.Task {
	task := &entity.Task{
		ID:     d.ID.Hex(),
		Task:   d.Task,
		TaskID: d.TaskID,
		Stage:  d.Stage,
	}
	if !d.UserID.IsZero() {
		task.OwnerID = d.UserID.Hex()
	}
	return task
}

// MongoRepository stores users and tasks as documents in one database.
type MongoRepository struct {
	users *mongo.Collection
	tasks *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		users: db.Collection(usersCollection),
		tasks: db.Collection(tasksCollection),
	}
}

func (r *MongoRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	doc := userDocument{
		ID:       primitive.NewObjectID(),
		Username: user.Username,
		Password: user.Password,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return nil, err
	}

	user.ID = doc.ID.Hex()
	return user, nil
}

func (r *MongoRepository) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &entity.User{
		ID:       doc.ID.Hex(),
		Username: doc.Username,
		Password: doc.Password,
	}, nil
}

func (r *MongoRepository) GetTasks(ctx context.Context) ([]*entity.Task, error) {
	cursor, err := r.tasks.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []*entity.Task{}
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		tasks = append(tasks, doc.toEntity())
	}

	return tasks, cursor.Err()
}

func (r *MongoRepository) CreateTask(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	doc := taskDocument{
		ID:     primitive.NewObjectID(),
		Task:   task.Task,
		TaskID: task.TaskID,
		Stage:  task.Stage,
	}
	if task.OwnerID != "" {
		owner, err := parseObjectID(task.OwnerID)
		if err != nil {
			return nil, err
		}
		doc.UserID = owner
	}

	if _, err := r.tasks.InsertOne(ctx, doc); err != nil {
		return nil, err
	}

	task.ID = doc.ID.Hex()
	return task, nil
}

func (r *MongoRepository) UpdateTask(ctx context.Context, id string, update entity.TaskUpdate) (*entity.Task, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if update.Stage != nil {
		set["stage"] = *update.Stage
	}

	var doc taskDocument
	if len(set) == 0 {
		err = r.tasks.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	} else {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = r.tasks.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return doc.toEntity(), nil
}

func (r *MongoRepository) DeleteTask(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	_, err = r.tasks.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.users.Database().Client().Disconnect(ctx)
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}
