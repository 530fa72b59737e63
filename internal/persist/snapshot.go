package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kjelstad/chorebank/internal/engine"
	"github.com/kjelstad/chorebank/internal/model"
)

// SnapshotStore persists the full entity graph. Save rewrites the graph in
// one transaction, which is the engine's durable-write fence; Load rebuilds
// it at startup.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore creates a snapshot store on the given database.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

const childCols = `id, name, points, pin_hash, created_at, updated_at`

const taskCols = `id, title, description, points, due, assigned_to, status, completed_ts,
	approved, skip_approval, persist_until_completed, quick_complete, fastest_wins,
	carried_over, mark_overdue, icon, categories, schedule_mode, repeat_days,
	repeat_child_id, repeat_child_ids, bonus_enabled, bonus_title, bonus_points,
	bonus_completed_ts, bonus_approved, early_bonus_enabled, early_bonus_days,
	early_bonus_points, last_rollover, created_at, updated_at`

const itemCols = `id, title, price, icon, image, active, actions, created_at, updated_at`

const purchaseCols = `id, child_id, child_name, item_id, title, price, image, ts`

// Save rewrites the whole entity graph in one transaction. Either every
// table reflects the snapshot or none does.
func (s *SnapshotStore) Save(snap *engine.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"children", "categories", "tasks", "shop_items", "purchases"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, c := range snap.Children {
		if _, err := tx.Exec(
			`INSERT INTO children (`+childCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Points, c.PINHash, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert child: %w", err)
		}
	}

	for _, c := range snap.Categories {
		if _, err := tx.Exec(
			`INSERT INTO categories (id, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Color, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}

	for i := range snap.Tasks {
		if err := insertTask(tx, &snap.Tasks[i]); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
	}

	for _, item := range snap.ShopItems {
		if _, err := tx.Exec(
			`INSERT INTO shop_items (`+itemCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Title, item.Price, item.Icon, item.Image,
			boolInt(item.Active), string(item.Actions), item.CreatedAt, item.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert shop item: %w", err)
		}
	}

	for i, p := range snap.Purchases {
		if _, err := tx.Exec(
			`INSERT INTO purchases (`+purchaseCols+`, seq) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.ChildID, p.ChildName, p.ItemID, p.Title, p.Price, p.Image, p.TS, i,
		); err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads the entity graph back.
func (s *SnapshotStore) Load() (*engine.Snapshot, error) {
	snap := &engine.Snapshot{}

	rows, err := s.db.Query(`SELECT ` + childCols + ` FROM children ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load children: %w", err)
	}
	for rows.Next() {
		var c model.Child
		if err := rows.Scan(&c.ID, &c.Name, &c.Points, &c.PINHash, &c.CreatedAt, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan child: %w", err)
		}
		snap.Children = append(snap.Children, c)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT id, name, color, created_at, updated_at FROM categories ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan category: %w", err)
		}
		snap.Categories = append(snap.Categories, c)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT ` + taskCols + ` FROM tasks ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan task: %w", err)
		}
		snap.Tasks = append(snap.Tasks, *t)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT ` + itemCols + ` FROM shop_items ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load shop items: %w", err)
	}
	for rows.Next() {
		var item model.ShopItem
		var active int
		var actions string
		if err := rows.Scan(&item.ID, &item.Title, &item.Price, &item.Icon, &item.Image,
			&active, &actions, &item.CreatedAt, &item.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan shop item: %w", err)
		}
		item.Active = active != 0
		if actions != "" {
			item.Actions = json.RawMessage(actions)
		}
		snap.ShopItems = append(snap.ShopItems, item)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT ` + purchaseCols + ` FROM purchases ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("load purchases: %w", err)
	}
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ID, &p.ChildID, &p.ChildName, &p.ItemID, &p.Title,
			&p.Price, &p.Image, &p.TS); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		snap.Purchases = append(snap.Purchases, p)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	return snap, nil
}

func insertTask(tx *sql.Tx, t *model.Task) error {
	categories, err := encodeStrings(t.Categories)
	if err != nil {
		return err
	}
	repeatDays, err := encodeStrings(t.RepeatDays)
	if err != nil {
		return err
	}
	repeatChildren, err := encodeStrings(t.RepeatChildIDs)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO tasks (`+taskCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Points, nullTime(t.Due), t.AssignedTo, string(t.Status),
		nullTime(t.CompletedTS), boolInt(t.Approved), boolInt(t.SkipApproval),
		boolInt(t.PersistUntilCompleted), boolInt(t.QuickComplete), boolInt(t.FastestWins),
		boolInt(t.CarriedOver), boolInt(t.MarkOverdue), t.Icon, categories,
		string(t.ScheduleMode), repeatDays, t.RepeatChildID, repeatChildren,
		boolInt(t.BonusEnabled), t.BonusTitle, t.BonusPoints, nullTime(t.BonusCompletedTS),
		boolInt(t.BonusApproved), boolInt(t.EarlyBonusEnabled), t.EarlyBonusDays,
		t.EarlyBonusPoints, t.LastRollover, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var due, completed, bonusCompleted sql.NullTime
	var approved, skipApproval, persistUntil, quickComplete, fastestWins int
	var carriedOver, markOverdue, bonusEnabled, bonusApproved, earlyEnabled int
	var status, mode, categories, repeatDays, repeatChildren string

	err := scanner.Scan(
		&t.ID, &t.Title, &t.Description, &t.Points, &due, &t.AssignedTo, &status,
		&completed, &approved, &skipApproval, &persistUntil, &quickComplete,
		&fastestWins, &carriedOver, &markOverdue, &t.Icon, &categories, &mode,
		&repeatDays, &t.RepeatChildID, &repeatChildren, &bonusEnabled, &t.BonusTitle,
		&t.BonusPoints, &bonusCompleted, &bonusApproved, &earlyEnabled,
		&t.EarlyBonusDays, &t.EarlyBonusPoints, &t.LastRollover, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = model.Status(status)
	t.ScheduleMode = model.ScheduleMode(mode)
	t.Approved = approved != 0
	t.SkipApproval = skipApproval != 0
	t.PersistUntilCompleted = persistUntil != 0
	t.QuickComplete = quickComplete != 0
	t.FastestWins = fastestWins != 0
	t.CarriedOver = carriedOver != 0
	t.MarkOverdue = markOverdue != 0
	t.BonusEnabled = bonusEnabled != 0
	t.BonusApproved = bonusApproved != 0
	t.EarlyBonusEnabled = earlyEnabled != 0

	if due.Valid {
		t.Due = &due.Time
	}
	if completed.Valid {
		t.CompletedTS = &completed.Time
	}
	if bonusCompleted.Valid {
		t.BonusCompletedTS = &bonusCompleted.Time
	}

	if err := decodeStrings(categories, &t.Categories); err != nil {
		return nil, err
	}
	if err := decodeStrings(repeatDays, &t.RepeatDays); err != nil {
		return nil, err
	}
	if err := decodeStrings(repeatChildren, &t.RepeatChildIDs); err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeStrings(list []string) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode string list: %w", err)
	}
	return string(data), nil
}

func decodeStrings(data string, into *[]string) error {
	if data == "" || data == "[]" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), into); err != nil {
		return fmt.Errorf("decode string list: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate rows: %w", err)
	}
	return rows.Close()
}
