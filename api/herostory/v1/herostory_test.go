package v1

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yola1107/herostory/library/codec"
)

func TestCatalog(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, 17, reg.Len())

	code, ok := reg.CodeOf(&UserAttkCmd{})
	require.True(t, ok)
	assert.Equal(t, MsgCodeUserAttkCmd, code)

	_, ok = reg.Descriptor(15)
	assert.False(t, ok)
}

func TestCodec_AttackRoundTrip(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	c := codec.New(reg)

	data, err := c.Encode(&UserAttkCmd{TargetUserID: 2})
	require.NoError(t, err)
	// length=4, code=9, field 1 varint 2
	assert.Equal(t, []byte{0x00, 0x04, 0x00, 0x09, 0x08, 0x02}, data)

	msg, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, &UserAttkCmd{TargetUserID: 2}, msg)
}

// samples 每个消息类型一个填充了全部字段的实例, 空消息直接用零值
func samples() map[string]codec.Message {
	list := []codec.Message{
		&UserEntryCmd{UserID: 1, HeroAvatar: "Hero_Shaman"},
		&UserEntryResult{UserID: 1, UserName: "tom", HeroAvatar: "Hero_Shaman"},
		&WhoElseIsHereResult{UserInfo: []*UserInfo{
			{UserID: 1, UserName: "tom", HeroAvatar: "a", MoveState: &MoveState{FromPosX: 1.5, FromPosY: 2, ToPosX: 3, ToPosY: -3, StartTime: 1700000000000}},
			{UserID: 2, HeroAvatar: "b"},
		}},
		&UserMoveToCmd{MoveFromPosX: 1, MoveFromPosY: -2, MoveToPosX: 3.5, MoveToPosY: 4},
		&UserMoveToResult{MoveUserID: 3, MoveFromPosX: 1, MoveFromPosY: 2, MoveToPosX: 5, MoveToPosY: 2.25, MoveStartTime: 99},
		&UserQuitResult{QuitUserID: 4},
		&UserStopResult{StopUserID: 3, StopAtPosX: 7, StopAtPosY: 8},
		&UserAttkCmd{TargetUserID: 2},
		&UserAttkResult{AttkUserID: 1, TargetUserID: math.MaxUint32},
		&UserSubtractHpResult{TargetUserID: 2, SubtractHp: 10},
		&UserDieResult{TargetUserID: 2},
		&UserLoginCmd{UserName: "tom", Password: "pwd"},
		&UserLoginResult{UserID: 1, UserName: "tom", HeroAvatar: "Hero_Hammer"},
		&GetRankResult{RankItem: []*RankItem{
			{RankID: 1, UserID: 5, UserName: "x", HeroAvatar: "Hero_Shaman", Win: 3},
			{RankID: 2, UserID: 6, UserName: "y", Win: 1},
		}},
	}
	m := make(map[string]codec.Message, len(list))
	for _, msg := range list {
		m[msg.MsgName()] = msg
	}
	return m
}

func TestMessages_RoundTrip(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	c := codec.New(reg)
	all := samples()

	for _, d := range Catalog() {
		t.Run(d.Name, func(t *testing.T) {
			m, ok := all[d.Name]
			if !ok {
				m = d.New()
				body, err := m.Marshal()
				require.NoError(t, err)
				require.Empty(t, body, "message with fields needs a populated sample")
			}
			data, err := c.Encode(m)
			require.NoError(t, err)
			assert.Equal(t, d.Code, binary.BigEndian.Uint16(data[2:4]))

			got, err := c.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 9, protowire.BytesType)
	b = protowire.AppendString(b, "ignored")
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)

	var m UserDieResult
	require.NoError(t, m.Unmarshal(b))
	assert.Equal(t, uint32(42), m.TargetUserID)

	var stop UserStopCmd
	require.NoError(t, stop.Unmarshal(b))
}

func TestUnmarshal_Truncated(t *testing.T) {
	var m UserLoginCmd
	// field 1 bytes, length 5, only 2 bytes follow
	require.Error(t, m.Unmarshal([]byte{0x0a, 0x05, 'a', 'b'}))
}
