package service

import (
    "context"
    "database/sql"
    "fmt"
    "os"
    "sync"
    "testing"
    "time"

    _ "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-booking/internal/database"
    "github.com/iliyamo/hotel-booking/internal/model"
    "github.com/iliyamo/hotel-booking/internal/repository"
)

// Runs against a real MySQL when HOTEL_MYSQL_TEST_DSN is set, e.g.
// "root:pw@tcp(localhost:3306)/hotel_test?parseTime=true&loc=UTC".
func openTestMySQL(t *testing.T) *sql.DB {
    t.Helper()
    dsn := os.Getenv("HOTEL_MYSQL_TEST_DSN")
    if dsn == "" {
        t.Skip("HOTEL_MYSQL_TEST_DSN not set")
    }
    db, err := sql.Open("mysql", dsn)
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    require.NoError(t, database.Migrate(context.Background(), db))
    return db
}

func TestCreateBooking_ConcurrentSameRoomOneWins(t *testing.T) {
    db := openTestMySQL(t)
    ctx := context.Background()
    tag := time.Now().UnixNano()

    res, err := db.ExecContext(ctx, `INSERT INTO users (name, email) VALUES (?, ?)`,
        "Concurrent Guest", fmt.Sprintf("guest-%d@example.test", tag))
    require.NoError(t, err)
    userID, _ := res.LastInsertId()
    res, err = db.ExecContext(ctx, `INSERT INTO rooms (room_number, price_cents) VALUES (?, ?)`,
        fmt.Sprintf("T%d", tag%1_000_000_000), 100000)
    require.NoError(t, err)
    roomID, _ := res.LastInsertId()

    gw := &lockedGateway{}
    s := NewBookingService(db,
        repository.NewRoomRepo(db), repository.NewServiceRepo(db),
        repository.NewBookingRepo(db), repository.NewInvoiceRepo(db),
        gw, zap.NewNop())

    start := time.Now().UTC().Add(400 * 24 * time.Hour).Truncate(time.Second)
    in := CreateBookingInput{
        UserID:        uint64(userID),
        RoomIDs:       []uint64{uint64(roomID)},
        StartTime:     start,
        EndTime:       start.Add(48 * time.Hour),
        NumAdults:     1,
        PaymentMethod: model.PaymentCard,
        ClientIP:      "127.0.0.1",
    }

    const callers = 2
    errs := make([]error, callers)
    var ready, wg sync.WaitGroup
    ready.Add(1)
    for i := 0; i < callers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            ready.Wait()
            _, errs[i] = s.CreateBooking(ctx, in)
        }(i)
    }
    ready.Done()
    wg.Wait()

    var ok, unavailable int
    for _, err := range errs {
        switch {
        case err == nil:
            ok++
        case assert.ErrorIs(t, err, ErrRoomNotAvailable):
            unavailable++
        }
    }
    assert.Equal(t, 1, ok)
    assert.Equal(t, 1, unavailable)

    var n int
    require.NoError(t, db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM booking_rooms WHERE room_id = ?`, roomID).Scan(&n))
    assert.Equal(t, 1, n)
    assert.Equal(t, 1, gw.count())
}

// lockedGateway is fakeGateway safe for concurrent callers.
type lockedGateway struct {
    mu sync.Mutex
    fakeGateway
}

func (g *lockedGateway) BuildPaymentURL(ip string, amount int64, orderInfo, txnRef string) (string, error) {
    g.mu.Lock()
    defer g.mu.Unlock()
    return g.fakeGateway.BuildPaymentURL(ip, amount, orderInfo, txnRef)
}

func (g *lockedGateway) count() int {
    g.mu.Lock()
    defer g.mu.Unlock()
    return len(g.calls)
}
