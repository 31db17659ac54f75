package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"lms_backend/internals/features/home/notifications/model"
)

// Event: satu kejadian yang dicatat sebagai notifikasi
type Event struct {
	Type        string
	Title       string
	Description string
	StudentID   *uuid.UUID
	Tags        []string
	Payload     map[string]any
}

// Notifier: fire-and-forget. Kegagalan tidak pernah sampai ke pemanggil.
type Notifier interface {
	Publish(ev Event)
}

type Publisher struct {
	DB      *gorm.DB
	Timeout time.Duration

	wg sync.WaitGroup
}

func NewPublisher(db *gorm.DB) *Publisher {
	return &Publisher{DB: db, Timeout: 5 * time.Second}
}

// Publish insert di goroutine terpisah
func (p *Publisher) Publish(ev Event) {
	if p == nil || p.DB == nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[NOTIF] ❌ panic publish %s: %v", ev.Type, r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout())
		defer cancel()
		if err := p.Insert(ctx, ev); err != nil {
			log.Printf("[NOTIF] ⚠️ gagal simpan notifikasi %s: %v", ev.Type, err)
		}
	}()
}

// Insert sinkron (dipakai Publish dan test)
func (p *Publisher) Insert(ctx context.Context, ev Event) error {
	row := model.NotificationModel{
		NotificationTitle:       ev.Title,
		NotificationDescription: ev.Description,
		NotificationType:        ev.Type,
		NotificationStudentID:   ev.StudentID,
		NotificationTags:        ev.Tags,
	}
	if len(ev.Payload) > 0 {
		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		row.NotificationPayload = datatypes.JSON(raw)
	}
	return p.DB.WithContext(ctx).Create(&row).Error
}

// Wait menunggu semua publish yang sedang berjalan (graceful shutdown / test)
func (p *Publisher) Wait() {
	if p == nil {
		return
	}
	p.wg.Wait()
}

func (p *Publisher) timeout() time.Duration {
	if p.Timeout <= 0 {
		return 5 * time.Second
	}
	return p.Timeout
}

// Nop: Notifier yang tidak melakukan apa-apa
type Nop struct{}

func (Nop) Publish(Event) {}
