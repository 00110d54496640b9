package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	KeyToken     = "ta%v"
	KeyBalance   = "tb%v:%s"
	KeyAllowance = "tw%v:%s:%s"
)

var (
	ErrTokenInUse            = errors.New("token id already in use")
	ErrTokenUnknown          = errors.New("unknown token")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrBelowMinimum          = errors.New("balance below minimum")
	ErrZeroValue             = errors.New("zero value transfer")
	ErrNotAdmin              = errors.New("caller is not the token admin")
	ErrOverflow              = errors.New("balance overflow")
)

type TokenInfo struct {
	Admin      string `json:"admin"`
	MinBalance uint64 `json:"min_balance"`
	Supply     uint64 `json:"supply"`
}

// Store is a fungible-token ledger with allowance semantics, persisted in
// the shared state tree. Writes land in the working tree immediately, so
// callers sequencing a ledger write with other state changes must keep the
// ledger call as their final fallible step.
type Store struct {
	logger cmtlog.Logger
	tree   *iavl.MutableTree
}

func NewStore(tree *iavl.MutableTree, logger cmtlog.Logger) *Store {
	return &Store{
		logger: logger.With("module", "ledger"),
		tree:   tree,
	}
}

func (s *Store) Create(token uint32, admin string, minBalance uint64) error {
	info, err := s.token(token)
	if err != nil {
		return err
	}
	if info != nil {
		return ErrTokenInUse
	}
	return s.setToken(token, &TokenInfo{Admin: admin, MinBalance: minBalance})
}

func (s *Store) MintInto(token uint32, caller, to string, value uint64) error {
	info, err := s.mustToken(token)
	if err != nil {
		return err
	}
	if caller != info.Admin {
		return ErrNotAdmin
	}
	if value == 0 {
		return ErrZeroValue
	}
	if value > math.MaxUint64-info.Supply {
		return ErrOverflow
	}
	if err = s.credit(token, info, to, value); err != nil {
		return err
	}
	info.Supply += value
	return s.setToken(token, info)
}

func (s *Store) BalanceOf(token uint32, owner string) (uint64, error) {
	return s.getUint64(fmt.Sprintf(KeyBalance, token, owner))
}

func (s *Store) Allowance(token uint32, owner, spender string) (uint64, error) {
	return s.getUint64(fmt.Sprintf(KeyAllowance, token, owner, spender))
}

func (s *Store) Approve(token uint32, owner, spender string, value uint64) error {
	if _, err := s.mustToken(token); err != nil {
		return err
	}
	return s.setUint64(fmt.Sprintf(KeyAllowance, token, owner, spender), value)
}

func (s *Store) Transfer(token uint32, from, to string, value uint64) error {
	info, err := s.mustToken(token)
	if err != nil {
		return err
	}
	return s.move(token, info, from, to, value)
}

// TransferFrom moves value from owner to recipient on behalf of spender,
// consuming spender's allowance.
func (s *Store) TransferFrom(token uint32, spender, from, to string, value uint64) error {
	info, allowance, err := s.checkTransferFrom(token, spender, from, to, value)
	if err != nil {
		return err
	}
	if err = s.move(token, info, from, to, value); err != nil {
		return err
	}
	return s.setUint64(fmt.Sprintf(KeyAllowance, token, from, spender), allowance-value)
}

// CheckTransferFrom validates a TransferFrom without mutating anything.
func (s *Store) CheckTransferFrom(token uint32, spender, from, to string, value uint64) error {
	_, _, err := s.checkTransferFrom(token, spender, from, to, value)
	return err
}

// CheckTransfer validates a Transfer without mutating anything.
func (s *Store) CheckTransfer(token uint32, from, to string, value uint64) error {
	info, err := s.mustToken(token)
	if err != nil {
		return err
	}
	_, err = s.checkMove(token, info, from, to, value)
	return err
}

// Move transfers without consuming allowance. Holding a Move capability
// stands in for runtime privilege; only the treasury path gets one.
func (s *Store) Move(token uint32, from, to string, value uint64) error {
	return s.Transfer(token, from, to, value)
}

func (s *Store) checkTransferFrom(token uint32, spender, from, to string, value uint64) (info *TokenInfo, allowance uint64, err error) {
	info, err = s.mustToken(token)
	if err != nil {
		return
	}
	if value == 0 {
		err = ErrZeroValue
		return
	}
	allowance, err = s.Allowance(token, from, spender)
	if err != nil {
		return
	}
	if allowance < value {
		err = ErrInsufficientAllowance
		return
	}
	var balance uint64
	balance, err = s.BalanceOf(token, from)
	if err != nil {
		return
	}
	if balance < value {
		err = ErrInsufficientBalance
		return
	}
	err = s.checkCredit(token, info, to, value)
	return
}

func (s *Store) checkMove(token uint32, info *TokenInfo, from, to string, value uint64) (balance uint64, err error) {
	if value == 0 {
		err = ErrZeroValue
		return
	}
	balance, err = s.BalanceOf(token, from)
	if err != nil {
		return
	}
	if balance < value {
		err = ErrInsufficientBalance
		return
	}
	err = s.checkCredit(token, info, to, value)
	return
}

func (s *Store) move(token uint32, info *TokenInfo, from, to string, value uint64) error {
	balance, err := s.checkMove(token, info, from, to, value)
	if err != nil {
		return err
	}
	if err = s.setUint64(fmt.Sprintf(KeyBalance, token, from), balance-value); err != nil {
		return err
	}
	if err = s.credit(token, info, to, value); err != nil {
		return err
	}
	s.logger.Debug("transfer", "token", token, "from", from, "to", to, "value", value)
	return nil
}

func (s *Store) checkCredit(token uint32, info *TokenInfo, to string, value uint64) error {
	balance, err := s.BalanceOf(token, to)
	if err != nil {
		return err
	}
	if value > math.MaxUint64-balance {
		return ErrOverflow
	}
	if balance+value < info.MinBalance {
		return ErrBelowMinimum
	}
	return nil
}

func (s *Store) credit(token uint32, info *TokenInfo, to string, value uint64) error {
	if err := s.checkCredit(token, info, to, value); err != nil {
		return err
	}
	balance, err := s.BalanceOf(token, to)
	if err != nil {
		return err
	}
	return s.setUint64(fmt.Sprintf(KeyBalance, token, to), balance+value)
}

func (s *Store) mustToken(token uint32) (*TokenInfo, error) {
	info, err := s.token(token)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrTokenUnknown
	}
	return info, nil
}

func (s *Store) token(token uint32) (*TokenInfo, error) {
	dat, err := s.tree.Get([]byte(fmt.Sprintf(KeyToken, token)))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return nil, err
		}
		err = nil
	}
	if len(dat) == 0 {
		return nil, nil
	}
	info := &TokenInfo{}
	if err = json.Unmarshal(dat, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *Store) setToken(token uint32, info *TokenInfo) error {
	dat, err := json.Marshal(info)
	if err != nil {
		return err
	}
	_, err = s.tree.Set([]byte(fmt.Sprintf(KeyToken, token)), dat)
	return err
}

func (s *Store) getUint64(key string) (uint64, error) {
	dat, err := s.tree.Get([]byte(key))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return 0, err
		}
		err = nil
	}
	if len(dat) == 0 {
		return 0, nil
	}
	var v uint64
	if err = rlp.DecodeBytes(dat, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Store) setUint64(key string, v uint64) error {
	dat, err := rlp.EncodeToBytes(v)
	if err != nil {
		return err
	}
	_, err = s.tree.Set([]byte(key), dat)
	return err
}
