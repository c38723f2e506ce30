package stub

import (
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/provistock/provistock/internal/orders"
	"github.com/provistock/provistock/internal/provinces"
	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/stock"
	"github.com/provistock/provistock/internal/stockreq"
	"github.com/provistock/provistock/internal/transactions"
	"github.com/provistock/provistock/internal/users"
)

// Domain errors surfaced as {"message": ...} payloads. Message text is
// part of the wire contract: clients display it verbatim.
var (
	errBadCredentials    = errors.New("invalid email or password")
	errDuplicateEmail    = errors.New("email already registered")
	errDuplicateCode     = errors.New("province code already exists")
	errNotFound          = errors.New("resource not found")
	errOrderNotPending   = errors.New("order is not pending")
	errOrderNotSale      = errors.New("only sale orders can be completed")
	errOrderNotAccepted  = errors.New("order is not accepted")
	errRequestSettled    = errors.New("request already settled")
	errInsufficientStock = errors.New("insufficient stock in selected province")
	errBadReceiver       = errors.New("receiver must be province staff of the receiver province")
	errStaffNeedProvince = errors.New("province staff requires a province")
)

type account struct {
	users.User
	passwordHash []byte
}

type tokenInfo struct {
	userID  int64
	expires time.Time
}

type orderMeta struct {
	senderUserID int64
}

// State is the guarded in-memory world the stub serves from. It owns the
// authoritative lifecycle transitions and stock adjustments the real
// backend would perform.
type State struct {
	mu sync.Mutex

	seq      map[string]int64
	accounts map[int64]*account
	prov     map[int64]provinces.Province
	stocks   map[int64]stock.Stock
	orders   map[int64]orders.Order
	meta     map[int64]orderMeta
	requests map[int64]stockreq.Request
	ledger   map[int64][]transactions.Transaction
	tokens   map[string]tokenInfo

	tokenTTL time.Duration
	now      func() time.Time
}

// NewState constructs an empty world.
func NewState(tokenTTL time.Duration) *State {
	return &State{
		seq:      make(map[string]int64),
		accounts: make(map[int64]*account),
		prov:     make(map[int64]provinces.Province),
		stocks:   make(map[int64]stock.Stock),
		orders:   make(map[int64]orders.Order),
		meta:     make(map[int64]orderMeta),
		requests: make(map[int64]stockreq.Request),
		ledger:   make(map[int64][]transactions.Transaction),
		tokens:   make(map[string]tokenInfo),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

func (st *State) nextID(kind string) int64 {
	st.seq[kind]++
	return st.seq[kind]
}

// SeedUser registers an account with a bcrypt-hashed password.
func (st *State) SeedUser(u users.User, password string) users.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	st.mu.Lock()
	defer st.mu.Unlock()
	if u.ID == 0 {
		u.ID = st.nextID("user")
	}
	u.CreatedAt = st.now()
	st.accounts[u.ID] = &account{User: u, passwordHash: hash}
	return u
}

// SeedProvince registers a province.
func (st *State) SeedProvince(p provinces.Province) provinces.Province {
	st.mu.Lock()
	defer st.mu.Unlock()
	if p.ID == 0 {
		p.ID = st.nextID("province")
	}
	st.prov[p.ID] = p
	return p
}

// SeedStock registers a stock row.
func (st *State) SeedStock(s stock.Stock) stock.Stock {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s.ID == 0 {
		s.ID = st.nextID("stock")
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = st.now()
	}
	st.stocks[s.ID] = s
	return s
}

func (st *State) issueToken(userID int64) session.Token {
	token := newTokenValue()
	expires := st.now().Add(st.tokenTTL)
	st.tokens[token] = tokenInfo{userID: userID, expires: expires}
	return session.Token{Token: token, Expires: expires}
}

func (st *State) authenticate(email, password string) (users.User, session.Tokens, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, acc := range st.accounts {
		if acc.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) != nil {
			return users.User{}, session.Tokens{}, errBadCredentials
		}
		return acc.User, session.Tokens{Access: st.issueToken(acc.ID)}, nil
	}
	return users.User{}, session.Tokens{}, errBadCredentials
}

func (st *State) userForToken(token string) (users.User, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	info, ok := st.tokens[token]
	if !ok || st.now().After(info.expires) {
		return users.User{}, false
	}
	acc, ok := st.accounts[info.userID]
	if !ok {
		return users.User{}, false
	}
	return acc.User, true
}

func (st *State) listUsers(role session.Role) []users.User {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]users.User, 0, len(st.accounts))
	for _, acc := range st.accounts {
		if role != "" && acc.Role != role {
			continue
		}
		out = append(out, acc.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *State) createUser(in users.CreateInput) (users.User, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, acc := range st.accounts {
		if acc.Email == in.Email {
			return users.User{}, errDuplicateEmail
		}
	}
	if in.Role == session.RoleUser && in.ProvinceID <= 0 {
		return users.User{}, errStaffNeedProvince
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
	if err != nil {
		return users.User{}, err
	}
	u := users.User{
		ID:         st.nextID("user"),
		Name:       in.Name,
		Email:      in.Email,
		Role:       in.Role,
		ProvinceID: in.ProvinceID,
		CreatedAt:  st.now(),
	}
	st.accounts[u.ID] = &account{User: u, passwordHash: hash}
	return u, nil
}

func (st *State) updateUser(id int64, in users.UpdateInput) (users.User, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	acc, ok := st.accounts[id]
	if !ok {
		return users.User{}, errNotFound
	}
	if in.Name != "" {
		acc.Name = in.Name
	}
	if in.Email != "" {
		acc.Email = in.Email
	}
	if in.Role != "" {
		acc.Role = in.Role
	}
	if in.ProvinceID != 0 {
		acc.ProvinceID = in.ProvinceID
	}
	if acc.Role == session.RoleUser && acc.ProvinceID <= 0 {
		return users.User{}, errStaffNeedProvince
	}
	return acc.User, nil
}

func (st *State) deleteUser(id int64) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.accounts[id]; !ok {
		return errNotFound
	}
	delete(st.accounts, id)
	return nil
}

func (st *State) listProvinces() []provinces.Province {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]provinces.Province, 0, len(st.prov))
	for _, p := range st.prov {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *State) createProvince(in provinces.Input) (provinces.Province, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, p := range st.prov {
		if p.Code == in.Code {
			return provinces.Province{}, errDuplicateCode
		}
	}
	p := provinces.Province{ID: st.nextID("province"), Name: in.Name, Code: in.Code}
	st.prov[p.ID] = p
	return p, nil
}

func (st *State) updateProvince(id int64, in provinces.Input) (provinces.Province, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	p, ok := st.prov[id]
	if !ok {
		return provinces.Province{}, errNotFound
	}
	for _, other := range st.prov {
		if other.ID != id && other.Code == in.Code {
			return provinces.Province{}, errDuplicateCode
		}
	}
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Code != "" {
		p.Code = in.Code
	}
	st.prov[id] = p
	return p, nil
}

func (st *State) deleteProvince(id int64) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.prov[id]; !ok {
		return errNotFound
	}
	delete(st.prov, id)
	return nil
}

func (st *State) listStocks(customerID, provinceID int64) []stock.Stock {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]stock.Stock, 0, len(st.stocks))
	for _, s := range st.stocks {
		if customerID > 0 && s.CustomerID != customerID {
			continue
		}
		if provinceID > 0 && !s.LocatedIn(provinceID) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// findStock returns the customer's row for an item in a province. Callers
// hold st.mu.
func (st *State) findStock(customerID int64, item string, provinceID int64) (stock.Stock, bool) {
	ids := make([]int64, 0, len(st.stocks))
	for id := range st.stocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s := st.stocks[id]
		if s.CustomerID == customerID && s.ItemType == item && s.LocatedIn(provinceID) {
			return s, true
		}
	}
	return stock.Stock{}, false
}

// adjustStock changes a customer's quantity in a province by delta,
// creating the row for positive deltas when absent. Callers hold st.mu.
func (st *State) adjustStock(customerID int64, item, unit string, provinceID int64, delta int) error {
	row, ok := st.findStock(customerID, item, provinceID)
	if !ok {
		if delta < 0 {
			return errInsufficientStock
		}
		row = stock.Stock{
			ID:         st.nextID("stock"),
			CustomerID: customerID,
			ItemType:   item,
			Unit:       unit,
			ProvinceID: provinceID,
			CreatedAt:  st.now(),
		}
	}
	next := row.Quantity + delta
	if next < 0 {
		return errInsufficientStock
	}
	if next == 0 {
		delete(st.stocks, row.ID)
		return nil
	}
	row.Quantity = next
	st.stocks[row.ID] = row
	return nil
}
