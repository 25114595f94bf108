package biz

import (
	"context"

	"github.com/samber/lo"

	v1 "github.com/yola1107/herostory/api/herostory/v1"
	"github.com/yola1107/herostory/library/dispatch"
	"github.com/yola1107/herostory/library/work"
)

func (uc *Usecase) onGetRank(s dispatch.Session, _ *v1.GetRankCmd) {
	n := uc.rc.RankSize
	timeout := uc.storeTimeout()

	uc.submit(work.NewAsyncOp(s.UID(), func(ctx context.Context) ([]*RankItem, error) {
		ctx, cancel := withTimeout(ctx, timeout)
		defer cancel()
		items, err := uc.rankRepo.TopRank(ctx, n)
		return items, wrapStore("top rank", err)
	}, func(items []*RankItem) {
		if s.Closed() {
			return
		}
		uc.bc.Send(s, &v1.GetRankResult{
			RankItem: lo.Map(items, func(it *RankItem, _ int) *v1.RankItem {
				return &v1.RankItem{
					RankID:     uint32(it.RankID),
					UserID:     uint32(it.UserID),
					UserName:   it.UserName,
					HeroAvatar: it.HeroAvatar,
					Win:        uint32(it.Win),
				}
			}),
		})
	}))
}
