package conf

import (
	"fmt"
	"reflect"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/herostory/library/xgo"
)

// Watch 监听 key 对应的配置段, 变更且校验通过后调用 apply.
// target 为当前值 (指针), 只用于计算差异, 不会被修改
func Watch[T any](c config.Config, key string, target *T, apply func(*T)) error {
	if err := c.Watch(key, observer(key, target, apply)); err != nil {
		return fmt.Errorf("watch %q failed: %w", key, err)
	}
	return nil
}

func observer[T any](key string, target *T, apply func(*T)) func(string, config.Value) {
	current := new(T)
	if err := xgo.DeepCopy(current, target); err != nil {
		log.Errorf("[config] copy failed: key=%q, err=%v", key, err)
	}
	return func(_ string, val config.Value) {
		newVal := new(T)
		if err := xgo.DeepCopy(newVal, current); err != nil {
			log.Errorf("[config] copy failed: key=%q, err=%v", key, err)
			return
		}
		if err := val.Scan(newVal); err != nil {
			log.Errorf("[config] scan failed: key=%q, err=%v", key, err)
			return
		}
		if v, ok := any(newVal).(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				log.Errorf("[config] validation failed: key=%q, err=%v", key, err)
				return
			}
		}

		_, diff, err := xgo.DiffLog(current, newVal)
		if err != nil {
			log.Errorf("[config] diff failed: key=%q, err=%v", key, err)
			return
		}
		if len(diff) == 0 || reflect.DeepEqual(current, newVal) {
			return
		}
		log.Warnf("[config] [%q] updated:\n%s", key, diff)
		current = newVal
		apply(newVal)
	}
}

// Validate 房间参数热更新时的校验
func (r *Room) Validate() error {
	if r.MaxHp <= 0 || r.Damage <= 0 {
		return fmt.Errorf("room.max_hp and room.damage must be > 0")
	}
	if r.RespawnDelay < 0 {
		return fmt.Errorf("room.respawn_delay must be >= 0")
	}
	return nil
}
