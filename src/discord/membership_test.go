package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"github.com/stake-plus/allowlist-attest/src/attestd/identity"
)

type fakeGuild struct {
	members     []*discordgo.Member
	searchErr   error
	listErr     error
	searchCalls int
	listCalls   int
	afters      []string
}

func (f *fakeGuild) GuildMembers(_ string, after string, limit int, _ ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	f.listCalls++
	f.afters = append(f.afters, after)
	if f.listErr != nil {
		return nil, f.listErr
	}
	start := 0
	if after != "" {
		for i, m := range f.members {
			if m.User != nil && m.User.ID == after {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(f.members) {
		end = len(f.members)
	}
	return f.members[start:end], nil
}

func (f *fakeGuild) GuildMembersSearch(_ string, query string, limit int, _ ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []*discordgo.Member
	for _, m := range f.members {
		if m.User == nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(m.User.Username), strings.ToLower(query)) {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func member(id, username, discriminator string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id, Username: username, Discriminator: discriminator}}
}

func smallGuild() *fakeGuild {
	return &fakeGuild{members: []*discordgo.Member{
		member("1", "alice", "1234"),
		member("2", "alice", "9999"),
		member("3", "bob", "0001"),
		{User: nil},
	}}
}

func TestVerifyChatSearch(t *testing.T) {
	g := smallGuild()
	v := NewVerifier(g, "guild", true)

	assert.Equal(t, identity.StatusVerified, v.VerifyChat(context.Background(), "alice", "1234").Status)
	assert.Equal(t, identity.StatusNotFound, v.VerifyChat(context.Background(), "alice", "0000").Status)
	assert.Equal(t, identity.StatusNotFound, v.VerifyChat(context.Background(), "Alice", "1234").Status)
	assert.Equal(t, 3, g.searchCalls)
	assert.Equal(t, 0, g.listCalls)
}

func TestVerifyChatScan(t *testing.T) {
	g := smallGuild()
	v := NewVerifier(g, "guild", false)

	assert.Equal(t, identity.StatusVerified, v.VerifyChat(context.Background(), "bob", "0001").Status)
	assert.Equal(t, identity.StatusNotFound, v.VerifyChat(context.Background(), "carol", "0001").Status)
	assert.Equal(t, 0, g.searchCalls)
	assert.Equal(t, 2, g.listCalls)
}

func TestVerifyChatFallsBackWhenSearchFails(t *testing.T) {
	g := smallGuild()
	g.searchErr = errors.New("403 Missing Access")
	v := NewVerifier(g, "guild", true)

	out := v.VerifyChat(context.Background(), "alice", "9999")
	assert.Equal(t, identity.StatusVerified, out.Status)
	assert.Equal(t, 1, g.searchCalls)
	assert.Equal(t, 1, g.listCalls)
}

func TestVerifyChatProviderError(t *testing.T) {
	g := smallGuild()
	g.searchErr = errors.New("search down")
	g.listErr = errors.New("list down")
	v := NewVerifier(g, "guild", true)

	out := v.VerifyChat(context.Background(), "alice", "1234")
	assert.Equal(t, identity.StatusProviderError, out.Status)
	assert.ErrorIs(t, out.Err, g.listErr)
}

func TestVerifyChatCancelledContext(t *testing.T) {
	g := smallGuild()
	g.searchErr = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewVerifier(g, "guild", true).VerifyChat(ctx, "alice", "1234")
	assert.Equal(t, identity.StatusProviderError, out.Status)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Equal(t, 0, g.listCalls)
}

func TestVerifyChatPaginates(t *testing.T) {
	g := &fakeGuild{}
	for i := 0; i < pageSize+5; i++ {
		g.members = append(g.members, member(fmt.Sprintf("%d", i+1), fmt.Sprintf("user%d", i), "0001"))
	}
	v := NewVerifier(g, "guild", false)

	out := v.VerifyChat(context.Background(), fmt.Sprintf("user%d", pageSize+2), "0001")
	assert.Equal(t, identity.StatusVerified, out.Status)
	assert.Equal(t, []string{"", fmt.Sprintf("%d", pageSize)}, g.afters)
}

func TestVerifyChatFullSearchPageFallsBackToScan(t *testing.T) {
	g := &fakeGuild{}
	for i := 0; i < pageSize; i++ {
		g.members = append(g.members, member(fmt.Sprintf("%d", i+1), fmt.Sprintf("sam%d", i), "0001"))
	}
	g.members = append(g.members, member("target", "sam", "4242"))
	v := NewVerifier(g, "guild", true)

	out := v.VerifyChat(context.Background(), "sam", "4242")
	assert.Equal(t, identity.StatusVerified, out.Status)
	assert.Equal(t, 1, g.searchCalls)
	assert.Equal(t, 2, g.listCalls)
}

func TestVerifyChatEmptyUsername(t *testing.T) {
	g := smallGuild()
	out := NewVerifier(g, "guild", true).VerifyChat(context.Background(), "", "1234")
	assert.Equal(t, identity.StatusNotFound, out.Status)
	assert.Equal(t, 0, g.searchCalls+g.listCalls)
}

func TestNewSession(t *testing.T) {
	s, err := NewSession("token")
	assert.NoError(t, err)
	assert.Equal(t, "Bot token", s.Token)
	assert.Zero(t, s.Identify.Intents&discordgo.IntentsGuildMembers)
}
