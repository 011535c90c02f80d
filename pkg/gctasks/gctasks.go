package gctasks

import (
	"context"
	"fmt"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Client defers HTTP callbacks through Google Cloud Tasks. The service uses
// it to schedule the settlement trigger at an event's end; status itself is
// always derived on read and never depends on the task firing.
type Client interface {
	CreateQueue(id string) (err error)
	CreateTask(queueID string, request Request) (err error)
	DeferCreateTaskInTime(queueID string, request Request, schedule time.Time) (err error)
	Close() error
}

const (
	locationID = "asia-southeast1"
)

type tasksClientImpl struct {
	projectID string
	logger    *logrus.Logger
	client    *cloudtasks.Client
}

type Request struct {
	URL    string
	Method cloudtaskspb.HttpMethod
	Header map[string]string
	Body   []byte
}

func NewGCTasks(logger *logrus.Logger, projectID string, credsJSON []byte) Client {
	c, err := cloudtasks.NewClient(context.Background(), option.WithCredentialsJSON(credsJSON))
	if err != nil {
		logger.WithField("object", "gctasks").Error(err)
		return nil
	}

	return &tasksClientImpl{
		logger:    logger,
		client:    c,
		projectID: projectID,
	}
}

func (tc *tasksClientImpl) Close() error {
	return tc.client.Close()
}

func (tc *tasksClientImpl) queuePath(queueID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", tc.projectID, locationID, queueID)
}

func (tc *tasksClientImpl) CreateQueue(id string) (err error) {
	parent := fmt.Sprintf("projects/%s/locations/%s", tc.projectID, locationID)

	_, err = tc.client.CreateQueue(context.Background(), &cloudtaskspb.CreateQueueRequest{
		Parent: parent,
		Queue: &cloudtaskspb.Queue{
			Name: tc.queuePath(id),
		},
	})
	if err != nil {
		tc.logger.WithField("object", "gctasks").Error(err)
		return err
	}

	return nil
}

func (tc *tasksClientImpl) CreateTask(queueID string, request Request) (err error) {
	return tc.createTask(queueID, request, nil)
}

func (tc *tasksClientImpl) DeferCreateTaskInTime(queueID string, request Request, schedule time.Time) (err error) {
	return tc.createTask(queueID, request, timestamppb.New(schedule))
}

func (tc *tasksClientImpl) createTask(queueID string, request Request, schedule *timestamppb.Timestamp) error {
	task := &cloudtaskspb.Task{
		MessageType: &cloudtaskspb.Task_HttpRequest{
			HttpRequest: &cloudtaskspb.HttpRequest{
				Url:        request.URL,
				HttpMethod: request.Method,
				Headers:    request.Header,
				Body:       request.Body,
			},
		},
		ScheduleTime: schedule,
	}

	_, err := tc.client.CreateTask(context.Background(), &cloudtaskspb.CreateTaskRequest{
		Parent: tc.queuePath(queueID),
		Task:   task,
	})
	if err != nil {
		tc.logger.WithFields(logrus.Fields{
			"object":  "gctasks",
			"queueId": queueID,
		}).Error(err)
		return err
	}

	return nil
}
