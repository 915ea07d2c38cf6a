/*
   Copyright The hoprd-config-generator Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package tags

import (
	"errors"
	"fmt"
	"net/netip"
)

const (
	IPv4Tag             = "!IPv4"
	TokenTag            = "!Token"
	AggregatingTag      = "!Aggregating"
	AutoFundingTag      = "!AutoFunding"
	AutoRedeemingTag    = "!AutoRedeeming"
	ClosureFinalizerTag = "!ClosureFinalizer"
)

// IPv4 is a dotted-quad network address.
type IPv4 struct {
	Address string `toml:"address"`
}

func (*IPv4) Tag() string { return IPv4Tag }

func (v *IPv4) Validate() error {
	addr, err := netip.ParseAddr(v.Address)
	if err != nil {
		return err
	}
	if !addr.Is4() {
		return fmt.Errorf("%q is not an IPv4 address", v.Address)
	}
	return nil
}

// Token is an API authentication token.
type Token struct {
	Token string `toml:"token"`
}

func (*Token) Tag() string { return TokenTag }

func (v *Token) Validate() error {
	if v.Token == "" {
		return errors.New("token must not be empty")
	}
	return nil
}

// Aggregating configures ticket aggregation.
type Aggregating struct {
	AggregationThreshold    *int64   `toml:"aggregation_threshold"`
	UnrealizedBalanceRatio  *float64 `toml:"unrealized_balance_ratio"`
	AggregateOnChannelClose *bool    `toml:"aggregate_on_channel_close"`
}

func (*Aggregating) Tag() string { return AggregatingTag }

func (v *Aggregating) Validate() error {
	if v.AggregationThreshold != nil && *v.AggregationThreshold < 0 {
		return errors.New("aggregation_threshold must not be negative")
	}
	if r := v.UnrealizedBalanceRatio; r != nil && (*r < 0 || *r > 1) {
		return errors.New("unrealized_balance_ratio must be within [0, 1]")
	}
	return nil
}

// AutoFunding configures automatic channel funding.
type AutoFunding struct {
	FundingAmount     *string `toml:"funding_amount"`
	MinStakeThreshold *string `toml:"min_stake_threshold"`
}

func (*AutoFunding) Tag() string { return AutoFundingTag }

// AutoRedeeming configures automatic ticket redemption.
type AutoRedeeming struct {
	RedeemOnlyAggregated               *bool   `toml:"redeem_only_aggregated"`
	MinimumRedeemTicketValue           *string `toml:"minimum_redeem_ticket_value"`
	OnCloseRedeemSingleTicketsValueMin *string `toml:"on_close_redeem_single_tickets_value_min"`
}

func (*AutoRedeeming) Tag() string { return AutoRedeemingTag }

// ClosureFinalizer configures finalization of channels pending closure.
type ClosureFinalizer struct {
	MaxClosureOverdue *int64 `toml:"max_closure_overdue"`
}

func (*ClosureFinalizer) Tag() string { return ClosureFinalizerTag }

func (v *ClosureFinalizer) Validate() error {
	if v.MaxClosureOverdue != nil && *v.MaxClosureOverdue < 0 {
		return errors.New("max_closure_overdue must not be negative")
	}
	return nil
}

// DefaultKinds lists the kinds understood by node configuration files.
func DefaultKinds() []Kind {
	return []Kind{
		{Tag: IPv4Tag, PrimaryField: "address", New: func() Value { return &IPv4{} }},
		{Tag: TokenTag, PrimaryField: "token", New: func() Value { return &Token{} }},
		{Tag: AggregatingTag, PrimaryField: "aggregation_threshold", New: func() Value { return &Aggregating{} }},
		{Tag: AutoFundingTag, PrimaryField: "funding_amount", New: func() Value { return &AutoFunding{} }},
		{Tag: AutoRedeemingTag, PrimaryField: "redeem_only_aggregated", New: func() Value { return &AutoRedeeming{} }},
		{Tag: ClosureFinalizerTag, PrimaryField: "max_closure_overdue", New: func() Value { return &ClosureFinalizer{} }},
	}
}

// RegisterDefaults registers DefaultKinds on r.
func RegisterDefaults(r *Registry) error {
	for _, kind := range DefaultKinds() {
		if err := r.Register(kind); err != nil {
			return err
		}
	}
	return nil
}

// NewDefaultRegistry returns a registry holding DefaultKinds.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		panic(err)
	}
	return r
}
