package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"medimitra-membership-api/queue"
	"medimitra-membership-api/services/email"
)

// NotificationWorker drains the notification queue: welcome emails for new
// members and support escalations for payments that need a human.
type NotificationWorker struct {
	queue        *queue.Queue
	emailService *email.SMTPService
	concurrency  int
	shutdown     chan struct{}
	wg           sync.WaitGroup
}

func NewNotificationWorker(q *queue.Queue, emailService *email.SMTPService, concurrency int) *NotificationWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &NotificationWorker{
		queue:        q,
		emailService: emailService,
		concurrency:  concurrency,
		shutdown:     make(chan struct{}),
	}
}

func (w *NotificationWorker) Start() {
	log.Printf("Starting notification worker with %d goroutines", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run(i)
	}

	w.wg.Add(1)
	go w.runDelayedPump()
}

func (w *NotificationWorker) Stop() {
	log.Println("Stopping notification worker...")
	close(w.shutdown)
	w.wg.Wait()
	log.Println("Notification worker stopped")
}

func (w *NotificationWorker) run(id int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.shutdown:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		job, err := w.queue.Dequeue(ctx, 5*time.Second)
		cancel()

		if err != nil {
			log.Printf("Worker %d: error dequeuing job: %v", id, err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		w.processJob(id, job)
	}
}

func (w *NotificationWorker) processJob(workerID int, job *queue.Job) {
	log.Printf("Worker %d: processing job %s of type %s", workerID, job.ID, job.Type)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch job.Type {
	case queue.JobTypeWelcomeEmail:
		err = w.handleWelcomeEmail(job)
	case queue.JobTypeSupportEscalation:
		err = w.handleSupportEscalation(job)
	default:
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		log.Printf("Worker %d: job %s failed: %v", workerID, job.ID, err)
		if failErr := w.queue.FailJob(ctx, job, err); failErr != nil {
			log.Printf("Worker %d: failed to reschedule job %s: %v", workerID, job.ID, failErr)
		}
		return
	}

	if err := w.queue.CompleteJob(ctx, job); err != nil {
		log.Printf("Worker %d: failed to complete job %s: %v", workerID, job.ID, err)
	}
}

func (w *NotificationWorker) handleWelcomeEmail(job *queue.Job) error {
	name := stringField(job, "name")
	to := stringField(job, "email")
	membershipID := stringField(job, "membership_id")
	plan := stringField(job, "plan")

	if to == "" {
		return fmt.Errorf("welcome email job %s has no recipient", job.ID)
	}

	return w.emailService.SendWelcomeEmail(to, name, membershipID, plan)
}

func (w *NotificationWorker) handleSupportEscalation(job *queue.Job) error {
	reason := stringField(job, "reason")
	paymentID := stringField(job, "payment_id")
	orderID := stringField(job, "order_id")
	customerEmail := stringField(job, "email")

	return w.emailService.SendSupportEscalation(reason, paymentID, orderID, customerEmail)
}

// runDelayedPump moves due retries back onto the ready list.
func (w *NotificationWorker) runDelayedPump() {
	defer w.wg.Done()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := w.queue.ProcessDelayedJobs(ctx); err != nil {
				log.Printf("Error processing delayed jobs: %v", err)
			}
			cancel()
		}
	}
}

func stringField(job *queue.Job, key string) string {
	if v, ok := job.Data[key].(string); ok {
		return v
	}
	return ""
}
