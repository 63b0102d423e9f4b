// Package demo holds the sample target the built-in observation
// scenarios run against.
package demo

import "fmt"

// Account is a tiny bank account. Its String method keeps trace lines
// readable, and MustWithdraw gives the failure scenarios something to
// fall over on.
type Account struct {
	Name    string
	Balance int
	Flags   int
}

// NewAccount creates an account with an opening balance.
func NewAccount(name string, balance int) *Account {
	return &Account{Name: name, Balance: balance}
}

func (a *Account) String() string {
	return fmt.Sprintf("Account(%s)", a.Name)
}

// Get returns the current balance.
func (a *Account) Get() int {
	return a.Balance
}

// Deposit adds amount and returns the new balance.
func (a *Account) Deposit(amount int) int {
	a.Balance += amount
	return a.Balance
}

// MustWithdraw removes amount, panicking when the balance cannot cover
// it.
func (a *Account) MustWithdraw(amount int) int {
	if amount > a.Balance {
		panic(fmt.Sprintf("insufficient funds: %d > %d", amount, a.Balance))
	}
	a.Balance -= amount
	return a.Balance
}
